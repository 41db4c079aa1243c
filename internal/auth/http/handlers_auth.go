package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
)

const (
	mockUserID     = "test-user-id"
	mockUserName   = "Test User"
	mockDepartment = "Development"
	mockPosition   = "Developer"
)

// MockLogin issues a development token for any email. The body is optional;
// it defaults to test@test.com in company 1.
func (h *Handler) MockLogin(c *gin.Context) {
	req := mockLoginRequest{Email: "test@test.com"}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body", "details": err.Error()})
			return
		}
	}

	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	companyID := 1
	if req.CompanyID != nil {
		companyID = *req.CompanyID
	}

	token, expiresAt, err := h.issuer.Issue(&auth.Principal{
		Subject: mockUserID,
		Name:    mockUserName,
		Email:   req.Email,
		Custom: map[string]string{
			auth.ClaimCompanyID:      strconv.Itoa(companyID),
			auth.ClaimBusinessUserID: "1",
			auth.ClaimDepartment:     mockDepartment,
			auth.ClaimPosition:       mockPosition,
		},
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": loginUser{
			ID:         1,
			Email:      req.Email,
			Name:       mockUserName,
			CompanyID:  companyID,
			Department: mockDepartment,
			Position:   mockPosition,
		},
		"expiresAt": expiresAt,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Refresh token not implemented yet"})
}

func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
