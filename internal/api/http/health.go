package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

const (
	statusUp       = "up"
	statusDown     = "down"
	statusDisabled = "disabled"
)

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	DB          string    `json:"db"`
	Redis       string    `json:"redis"`
}

type InfoResponse struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

type HealthHandler struct {
	version     string
	environment string
	db          *pgxpool.Pool
	redis       *redis.Client
	clock       clock.Clock
}

// NewHealthHandler reports on the given backends. db and rdb may be nil.
func NewHealthHandler(version, environment string, db *pgxpool.Pool, rdb *redis.Client, clk clock.Clock) *HealthHandler {
	if clk == nil {
		clk = clock.System{}
	}
	return &HealthHandler{
		version:     version,
		environment: environment,
		db:          db,
		redis:       rdb,
		clock:       clk,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()

	dbStatus := statusDisabled
	if h.db != nil {
		dbStatus = pingStatus(h.db.Ping(pingCtx))
	}
	redisStatus := statusDisabled
	if h.redis != nil {
		redisStatus = pingStatus(h.redis.Ping(pingCtx).Err())
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:      "Healthy",
		Timestamp:   h.clock.UTCNow(),
		Version:     h.version,
		Environment: h.environment,
		DB:          dbStatus,
		Redis:       redisStatus,
	})
}

// Liveness answers as long as the process serves requests.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Name:        "ERP API",
		Version:     h.version,
		Environment: h.environment,
		Timestamp:   h.clock.UTCNow(),
		Description: "Project, time and invoice management for IT services companies",
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.Liveness)
	r.GET("/api/info", h.Info)
}

func pingStatus(err error) string {
	if err != nil {
		return statusDown
	}
	return statusUp
}
