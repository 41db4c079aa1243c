package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c.Request.Context()))
	})

	t.Run("generates id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

		rid := rr.Header().Get(HeaderRequestID)
		assert.Len(t, rid, 36)
		assert.Equal(t, rid, rr.Body.String())
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", rr.Header().Get(HeaderRequestID))
		assert.Equal(t, "abc-123", rr.Body.String())
	})
}

func TestProblems(t *testing.T) {
	router := gin.New()
	router.Use(Problems(zap.NewNop()))
	router.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperr.NewNotFound("Project", 42))
	})
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("db password is hunter2"))
	})
	router.GET("/invalid", func(c *gin.Context) {
		_ = c.Error(apperr.NewValidationError(apperr.Failure{Property: "Name", Message: "Name is required."}))
	})

	cases := []struct {
		path     string
		status   int
		contains string
	}{
		{"/missing", http.StatusNotFound, `"detail":"Entity \"Project\" (42) was not found."`},
		{"/boom", http.StatusInternalServerError, `"title":"An error occurred while processing your request."`},
		{"/invalid", http.StatusBadRequest, `"errors":{"Name":["Name is required."]}`},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, tc.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.contains)
			assert.Contains(t, rr.Body.String(), `"instance":"`+tc.path+`"`)
			assert.NotContains(t, rr.Body.String(), "hunter2")
		})
	}
}

func TestSubdomain(t *testing.T) {
	cases := map[string]string{
		"acme.erp.example.com":      "acme",
		"acme.erp.example.com:8443": "acme",
		"example.com":               "",
		"localhost:8080":            "",
		"127.0.0.1:8080":            "",
		"[::1]:8080":                "",
	}
	for host, want := range cases {
		assert.Equal(t, want, subdomain(host), host)
	}
}

func TestTenantSubdomain(t *testing.T) {
	router := gin.New()
	router.Use(TenantSubdomain(zap.NewNop()))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxTenantSubdomain))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "globex.erp.example.com"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "globex", rr.Body.String())
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	require.Len(t, codes, 3)
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "limits are per client")
}
