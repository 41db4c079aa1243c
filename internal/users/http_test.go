package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apimw "github.com/GoSim-25-26J-441/erp-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
)

func setupUsersRouter(t *testing.T, store *memStore, roles ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(apimw.Problems(zap.NewNop()))
	router.Use(func(c *gin.Context) {
		p := &auth.Principal{
			Subject: "identity-hr",
			Roles:   roles,
			Custom:  map[string]string{auth.ClaimCompanyID: "3", auth.ClaimBusinessUserID: "1"},
		}
		user := auth.NewResolver(nil, nil, nil).ForPrincipal(p)
		c.Request = c.Request.WithContext(auth.WithCurrentUser(c.Request.Context(), user))
		c.Next()
	})
	NewHandler(newService(store, newMemAccounts())).Register(router.Group("/api/users"))
	return router
}

func TestHandler_List(t *testing.T) {
	store := newMemStore(
		domain.User{BaseEntity: domain.BaseEntity{ID: 1, CompanyID: 3}, FirstName: "Ann"},
		domain.User{BaseEntity: domain.BaseEntity{ID: 2, CompanyID: 4}, FirstName: "Bob"},
	)

	t.Run("forbidden without permission", func(t *testing.T) {
		router := setupUsersRouter(t, store, "Developer")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("lists own company", func(t *testing.T) {
		router := setupUsersRouter(t, store, "HR")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var got []domain.User
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Ann", got[0].FirstName)
	})
}

func TestHandler_Create(t *testing.T) {
	store := newMemStore()
	router := setupUsersRouter(t, store, "HR")

	t.Run("invalid body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"firstName":"A"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid model state.")
	})

	t.Run("unknown department", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := `{"firstName":"A","lastName":"B","email":"a@acme.test","department":"Space"}`
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Department is not valid.")
	})

	t.Run("negative pay", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := `{"firstName":"A","lastName":"B","email":"a@acme.test","department":"QA","hourlyRate":-1,"monthlySalary":-0.01}`
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "HourlyRate must be greater than or equal to 0.")
		assert.Contains(t, rr.Body.String(), "MonthlySalary must be greater than or equal to 0.")
	})

	t.Run("created", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := `{"firstName":"A","lastName":"B","email":"a@acme.test","department":"development","hourlyRate":45.10}`
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.JSONEq(t, `{"id":1}`, rr.Body.String())
		assert.Equal(t, domain.DepartmentDevelopment, store.users[1].Department)
		assert.Equal(t, 3, store.users[1].CompanyID)
		require.NotNil(t, store.users[1].HourlyRate)
		assert.Equal(t, "45.1", store.users[1].HourlyRate.String())
	})
}

func TestHandler_Deactivate(t *testing.T) {
	store := newMemStore(domain.User{BaseEntity: domain.BaseEntity{ID: 7, CompanyID: 3}})
	router := setupUsersRouter(t, store, "HR")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/users/7", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, store.users[7].IsDeleted)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/users/99", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/users/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
