package users

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
)

// Handler exposes the business user directory of the caller's company.
type Handler struct {
	svc *BusinessUserService
}

func NewHandler(svc *BusinessUserService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches user routes. The group must already require a tenant.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", middleware.RequirePermission("Users.View"), h.list)
	rg.GET("/me", h.me)
	rg.GET("/:id", middleware.RequirePermission("Users.View"), h.get)
	rg.POST("", middleware.RequirePermission("Users.Create"), h.create)
	rg.PUT("/:id", middleware.RequirePermission("Users.Edit"), h.update)
	rg.DELETE("/:id", middleware.RequirePermission("Users.Edit"), h.deactivate)
}

type userRequest struct {
	FirstName      string           `json:"firstName" binding:"required,max=100"`
	LastName       string           `json:"lastName" binding:"required,max=100"`
	Email          string           `json:"email" binding:"required,email,max=255"`
	Phone          *string          `json:"phone" binding:"omitempty,max=50"`
	EmployeeID     *string          `json:"employeeId" binding:"omitempty,max=50"`
	Department     string           `json:"department" binding:"required"`
	Position       *string          `json:"position" binding:"omitempty,max=100"`
	HireDate       *time.Time       `json:"hireDate"`
	Status         string           `json:"status"`
	HourlyRate     *decimal.Decimal `json:"hourlyRate"`
	MonthlySalary  *decimal.Decimal `json:"monthlySalary"`
	Skills         *string          `json:"skills"`
	IdentityUserID string           `json:"identityUserId"`
}

func (r userRequest) toDomain() (*domain.User, error) {
	dept, err := domain.ParseDepartment(r.Department)
	if err != nil {
		return nil, apperr.NewValidationError(apperr.Failure{Property: "Department", Message: "Department is not valid."})
	}
	var failures []apperr.Failure
	if r.HourlyRate != nil && r.HourlyRate.IsNegative() {
		failures = append(failures, apperr.Failure{Property: "HourlyRate", Message: "HourlyRate must be greater than or equal to 0."})
	}
	if r.MonthlySalary != nil && r.MonthlySalary.IsNegative() {
		failures = append(failures, apperr.Failure{Property: "MonthlySalary", Message: "MonthlySalary must be greater than or equal to 0."})
	}
	if len(failures) > 0 {
		return nil, apperr.NewValidationError(failures...)
	}

	u := &domain.User{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		EmployeeID:    r.EmployeeID,
		Department:    dept,
		Position:      r.Position,
		HireDate:      r.HireDate,
		HourlyRate:    r.HourlyRate,
		MonthlySalary: r.MonthlySalary,
		Skills:        r.Skills,
	}
	if r.Status != "" {
		status, err := domain.ParseUserStatus(r.Status)
		if err != nil {
			return nil, apperr.NewValidationError(apperr.Failure{Property: "Status", Message: "Status is not valid."})
		}
		u.Status = status
	}
	return u, nil
}

func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()
	companyID, err := auth.FromContext(ctx).CompanyID(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	items, err := h.svc.GetUsersByCompany(ctx, companyID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) me(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.svc.GetUserByIdentityID(ctx, auth.FromContext(ctx).IdentityUserID())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	u, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) create(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}
	u, err := req.toDomain()
	if err != nil {
		_ = c.Error(err)
		return
	}

	created, err := h.svc.CreateUser(c.Request.Context(), u, req.IdentityUserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": created.ID})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&apperr.BindError{Err: err})
		return
	}
	u, err := req.toDomain()
	if err != nil {
		_ = c.Error(err)
		return
	}
	u.ID = id

	if _, err := h.svc.UpdateUser(c.Request.Context(), u); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deactivate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeactivateUser(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
