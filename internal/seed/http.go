package seed

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register attaches the seed routes. They are anonymous.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/create-safe-data", h.createSafeData)
	rg.POST("/clean-data", h.cleanData)
	rg.GET("/status", h.status)
}

func (h *Handler) createSafeData(c *gin.Context) {
	res, err := h.svc.CreateSafeData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message":   "Failed to create seed data.",
			"error":     err.Error(),
			"timestamp": h.svc.clock.UTCNow(),
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) cleanData(c *gin.Context) {
	counts, err := h.svc.CleanData(c.Request.Context())
	if errors.Is(err, ErrNotDevelopment) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "This operation is only available in the development environment."})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to clean data.", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "All data has been removed.",
		"deletedCounts": counts,
		"timestamp":     h.svc.clock.UTCNow(),
	})
}

func (h *Handler) status(c *gin.Context) {
	st, err := h.svc.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message":   "Failed to read data status.",
			"error":     err.Error(),
			"timestamp": h.svc.clock.UTCNow(),
		})
		return
	}
	c.JSON(http.StatusOK, st)
}
