package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

// DiagnosticsHandler serves the anonymous /api/test routes used to check a
// deployment from a browser.
type DiagnosticsHandler struct {
	environment string
	clock       clock.Clock
}

func NewDiagnosticsHandler(environment string, clk clock.Clock) *DiagnosticsHandler {
	if clk == nil {
		clk = clock.System{}
	}
	return &DiagnosticsHandler{environment: environment, clock: clk}
}

func (h *DiagnosticsHandler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.ping)
	rg.GET("/health", h.health)
	rg.GET("/debug", h.debug)
}

func (h *DiagnosticsHandler) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "API is working!",
		"timestamp":   h.clock.UTCNow(),
		"environment": h.environment,
	})
}

func (h *DiagnosticsHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "Healthy",
		"timestamp": h.clock.UTCNow(),
	})
}

func (h *DiagnosticsHandler) debug(c *gin.Context) {
	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.GetHeader(name)
	}
	c.JSON(http.StatusOK, gin.H{
		"method":    c.Request.Method,
		"path":      c.Request.URL.Path,
		"host":      c.Request.Host,
		"clientIp":  c.ClientIP(),
		"headers":   headers,
		"timestamp": h.clock.UTCNow(),
	})
}
