package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/middleware"
)

// Accounts is the identity service surface the account routes need.
// *service.IdentityService satisfies it.
type Accounts interface {
	CreateUser(ctx context.Context, userName, password string) (apperr.Result, string, error)
	AddToRole(ctx context.Context, userID, role string) (apperr.Result, error)
	GetUserID(ctx context.Context, userName string) (string, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (apperr.Result, error)
	ResetPassword(ctx context.Context, userID, token, newPassword string) (apperr.Result, error)
	GeneratePasswordResetToken(ctx context.Context, userID string) (string, error)
	GenerateEmailConfirmationToken(ctx context.Context, userID string) (string, error)
	ConfirmEmail(ctx context.Context, userID, token string) (apperr.Result, error)
}

// Mailer is satisfied by *email.Sender.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string, isHTML bool) bool
}

// AccountHandler manages identity accounts: registration, email confirmation
// and passwords.
type AccountHandler struct {
	accounts Accounts
	mailer   Mailer
	logger   *zap.Logger
}

func NewAccountHandler(accounts Accounts, mailer Mailer, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{accounts: accounts, mailer: mailer, logger: logger.Named("accounts")}
}

func (h *AccountHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", middleware.RequirePermission("Users.Create"), h.register)
	rg.POST("/confirm-email", h.confirmEmail)
	rg.POST("/forgot-password", h.forgotPassword)
	rg.POST("/reset-password", h.resetPassword)
	rg.POST("/change-password", middleware.RequireAuthenticated(), h.changePassword)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=256"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type confirmEmailRequest struct {
	UserID string `json:"userId" binding:"required"`
	Token  string `json:"token" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	UserID      string `json:"userId" binding:"required"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h *AccountHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}
	ctx := c.Request.Context()

	res, id, err := h.accounts.CreateUser(ctx, req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !res.Succeeded {
		c.JSON(http.StatusBadRequest, res)
		return
	}

	if req.Role != "" {
		if res, err := h.accounts.AddToRole(ctx, id, req.Role); err != nil || !res.Succeeded {
			h.logger.Warn("role not assigned", zap.String("user_id", id), zap.String("role", req.Role), zap.Error(err))
		}
	}

	token, err := h.accounts.GenerateEmailConfirmationToken(ctx, id)
	if err != nil {
		h.logger.Warn("confirmation token not generated", zap.String("user_id", id), zap.Error(err))
	} else {
		body := fmt.Sprintf("<p>Confirm your account with user id <b>%s</b> and token:</p><pre>%s</pre>",
			id, url.QueryEscape(token))
		h.mailer.SendEmail(ctx, req.Email, "Confirm your ERP account", body, true)
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *AccountHandler) confirmEmail(c *gin.Context) {
	var req confirmEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}
	token, _ := url.QueryUnescape(req.Token)
	res, err := h.accounts.ConfirmEmail(c.Request.Context(), req.UserID, token)
	h.respond(c, res, err)
}

// forgotPassword always answers 200 whether or not the account exists.
func (h *AccountHandler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}
	ctx := c.Request.Context()

	id, err := h.accounts.GetUserID(ctx, req.Email)
	switch {
	case err != nil:
		h.logger.Error("password reset lookup failed", zap.Error(err))
	case id != "":
		token, err := h.accounts.GeneratePasswordResetToken(ctx, id)
		if err != nil {
			h.logger.Error("password reset token not generated", zap.String("user_id", id), zap.Error(err))
			break
		}
		body := fmt.Sprintf("<p>Reset your password with user id <b>%s</b> and token:</p><pre>%s</pre>",
			id, url.QueryEscape(token))
		h.mailer.SendEmail(ctx, req.Email, "Reset your ERP password", body, true)
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset email has been sent."})
}

func (h *AccountHandler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}
	token, _ := url.QueryUnescape(req.Token)
	res, err := h.accounts.ResetPassword(c.Request.Context(), req.UserID, token, req.NewPassword)
	h.respond(c, res, err)
}

func (h *AccountHandler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}
	user := auth.UserFrom(c)
	res, err := h.accounts.ChangePassword(c.Request.Context(), user.IdentityUserID(), req.CurrentPassword, req.NewPassword)
	h.respond(c, res, err)
}

func (h *AccountHandler) respond(c *gin.Context, res apperr.Result, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !res.Succeeded {
		c.JSON(http.StatusBadRequest, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
