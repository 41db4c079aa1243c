package http

import (
	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/middleware"
)

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/mock-login", h.MockLogin)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/logout", middleware.RequireAuthenticated(), h.Logout)
}
