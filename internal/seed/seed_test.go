package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
)

var seedNow = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

type fakeStore struct {
	counts   Counts
	latest   *domain.Company
	seeded   *Demo
	cleaned  bool
	seedErr  error
	countErr error
}

func (s *fakeStore) Counts(context.Context) (Counts, error) { return s.counts, s.countErr }

func (s *fakeStore) LatestCompany(context.Context) (*domain.Company, error) { return s.latest, nil }

func (s *fakeStore) Seed(_ context.Context, d *Demo) error {
	if s.seedErr != nil {
		return s.seedErr
	}
	d.Company.ID = 11
	d.link()
	for i, u := range d.Users {
		u.ID = 100 + i
	}
	for i, c := range d.Customers {
		c.ID = 200 + i
	}
	d.link()
	for i, p := range d.Projects {
		p.ID = 300 + i
	}
	s.seeded = d
	return nil
}

func (s *fakeStore) Clean(context.Context) (Counts, error) {
	s.cleaned = true
	return Counts{Companies: 1, Users: 3, Customers: 2, Projects: 2}, nil
}

func newTestService(store Store, env string) *Service {
	svc := NewService(store, clock.Fixed{At: seedNow}, env, nil)
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func TestCreateSafeData(t *testing.T) {
	store := &fakeStore{}
	res, err := newTestService(store, "development").CreateSafeData(context.Background())
	require.NoError(t, err)

	ts := seedNow.UnixMilli()
	assert.True(t, res.Ready)
	assert.Equal(t, 11, res.CompanyID)
	assert.Equal(t, "demo-1743498000000", res.CompanyDomain)
	assert.Equal(t, &Counts{Companies: 1, Users: 3, Customers: 2, Projects: 2}, res.Created)
	assert.Equal(t, "admin-1743498000000@demo.com", res.TestUsers.Admin)

	d := store.seeded
	require.NotNil(t, d)
	assert.Equal(t, domain.PlanProfessional, d.Company.Plan)
	for _, u := range d.Users {
		assert.Equal(t, 11, u.CompanyID)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(demoPassword)))
	}

	web, app := d.Projects[0], d.Projects[1]
	assert.Equal(t, fmt.Sprintf("WEB-%04d", ts%10000), web.Code)
	assert.Equal(t, domain.ProjectInProgress, web.Status)
	assert.Equal(t, 200, web.CustomerID)
	assert.Equal(t, domain.ProjectPlanning, app.Status)
	assert.Equal(t, 201, app.CustomerID)
	for _, p := range d.Projects {
		assert.Equal(t, 101, p.ProjectManagerID, "the PM user manages both")
		require.NotNil(t, p.TechnicalLeadID)
		assert.Equal(t, 102, *p.TechnicalLeadID)
		assert.Equal(t, 11, p.CompanyID)
	}
}

func TestCreateSafeData_ExistingData(t *testing.T) {
	store := &fakeStore{counts: Counts{Companies: 2}}
	res, err := newTestService(store, "development").CreateSafeData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExistingCompanies)
	assert.False(t, res.Ready)
	assert.Nil(t, store.seeded)
}

func TestCleanData(t *testing.T) {
	store := &fakeStore{}
	_, err := newTestService(store, "production").CleanData(context.Background())
	assert.ErrorIs(t, err, ErrNotDevelopment)
	assert.False(t, store.cleaned)

	counts, err := newTestService(store, "Development").CleanData(context.Background())
	require.NoError(t, err)
	assert.True(t, store.cleaned)
	assert.Equal(t, 3, counts.Users)
}

func TestStatus(t *testing.T) {
	store := &fakeStore{
		counts: Counts{Companies: 1, Users: 3, Customers: 0},
		latest: &domain.Company{BaseEntity: domain.BaseEntity{ID: 4, CreatedAt: seedNow}, Name: "Demo", Domain: "demo-1"},
	}
	st, err := newTestService(store, "development").Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Ready, "no customers yet")
	require.NotNil(t, st.LatestCompany)
	assert.Equal(t, "demo-1", st.LatestCompany.Domain)

	store.counts.Customers = 2
	st, err = newTestService(store, "development").Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Ready)
}

func setupSeedRouter(store Store, env string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(newTestService(store, env)).Register(router.Group("/api/seeddata"))
	return router
}

func TestHandler(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		rr := httptest.NewRecorder()
		setupSeedRouter(&fakeStore{}, "development").ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/seeddata/create-safe-data", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, true, body["ready"])
		assert.Contains(t, body, "testUsers")
	})

	t.Run("create failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		setupSeedRouter(&fakeStore{seedErr: errors.New("duplicate key")}, "development").
			ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/seeddata/create-safe-data", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "duplicate key")
	})

	t.Run("clean outside development", func(t *testing.T) {
		rr := httptest.NewRecorder()
		setupSeedRouter(&fakeStore{}, "production").ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/seeddata/clean-data", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.True(t, strings.Contains(rr.Body.String(), "development environment"))
	})

	t.Run("clean", func(t *testing.T) {
		rr := httptest.NewRecorder()
		setupSeedRouter(&fakeStore{}, "development").ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/seeddata/clean-data", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"companies":1`)
	})

	t.Run("status error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		setupSeedRouter(&fakeStore{countErr: errors.New("db down")}, "development").
			ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/seeddata/status", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
