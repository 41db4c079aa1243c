package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

var fixedNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func setupHealthRouter(rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	NewHealthHandler("1.0.0", "development", nil, rdb, clock.Fixed{At: fixedNow}).RegisterRoutes(router)
	NewDiagnosticsHandler("development", clock.Fixed{At: fixedNow}).Register(router.Group("/api/test"))
	return router
}

func TestHealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	rr := httptest.NewRecorder()
	setupHealthRouter(rdb).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "Healthy", response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Equal(t, "development", response.Environment)
	assert.Equal(t, "disabled", response.DB)
	assert.Equal(t, "up", response.Redis)
	assert.True(t, fixedNow.Equal(response.Timestamp))

	mr.Close()
	rr = httptest.NewRecorder()
	setupHealthRouter(rdb).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "down", response.Redis)
}

func TestHealthCheckMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	setupHealthRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestInfoAndLiveness(t *testing.T) {
	router := setupHealthRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/info", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var info InfoResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, "ERP API", info.Name)
	assert.Equal(t, "1.0.0", info.Version)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDiagnostics(t *testing.T) {
	router := setupHealthRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "API is working!")

	req := httptest.NewRequest(http.MethodGet, "/api/test/debug", nil)
	req.Header.Set("X-Tenant-Hint", "acme")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Method  string            `json:"method"`
		Headers map[string]string `json:"headers"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.MethodGet, body.Method)
	assert.Equal(t, "acme", body.Headers["X-Tenant-Hint"])
}
