//go:build integration

package postgres_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/GoSim-25-26J-441/erp-backend/config"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	authdomain "github.com/GoSim-25-26J-441/erp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/repository"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
	invoicerepo "github.com/GoSim-25-26J-441/erp-backend/internal/invoices/repository"
	"github.com/GoSim-25-26J-441/erp-backend/internal/projects"
	projectrepo "github.com/GoSim-25-26J-441/erp-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/erp-backend/internal/seed"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/erp-backend/internal/users"
)

func tenant(companyID int) context.Context {
	user := auth.NewResolver(nil, nil, nil).ForPrincipal(&auth.Principal{
		Subject: "integration",
		Name:    "Integration Test",
		Custom:  map[string]string{auth.ClaimCompanyID: strconv.Itoa(companyID)},
	})
	return auth.WithCurrentUser(context.Background(), user)
}

// Run with: go test -tags=integration -timeout 180s ./internal/storage/postgres/...
func TestRepositoriesWithRealPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("erp"),
		tcpostgres.WithUsername("erp"),
		tcpostgres.WithPassword("erp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	dbCfg := config.DatabaseConfig{DSN: dsn, MaxConns: 4, MinConns: 0}

	pool, err := postgres.OpenPool(ctx, dbCfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.ApplySchema(ctx, pool))
	require.NoError(t, postgres.ApplySchema(ctx, pool), "schema is idempotent")

	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	clk := clock.Fixed{At: now}
	seedRepo := seed.NewRepo(pool)
	seeded, err := seed.NewService(seedRepo, clk, "development", nil).CreateSafeData(ctx)
	require.NoError(t, err)
	require.True(t, seeded.Ready)
	companyID := seeded.CompanyID

	counts, err := seedRepo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.Counts{Companies: 1, Users: 3, Customers: 2, Projects: 2}, counts)

	projectsRepo := projectrepo.NewProjectRepository(pool)

	t.Run("projects are tenant scoped", func(t *testing.T) {
		items, total, err := projectsRepo.List(tenant(companyID), projects.ListFilter{Limit: 10}, now)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, items, 2)

		items, total, err = projectsRepo.List(tenant(companyID+1), projects.ListFilter{Limit: 10}, now)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)

		id := findProject(t, projectsRepo, companyID, "WEB-")
		p, err := projectsRepo.Get(tenant(companyID+1), id)
		require.NoError(t, err)
		assert.Nil(t, p, "another company cannot read the project")

		detail, err := projectsRepo.Detail(tenant(companyID), id)
		require.NoError(t, err)
		require.NotNil(t, detail)
		assert.InDelta(t, 30.0, detail.BudgetUtilization, 0.01)
		assert.True(t, detail.Budget.Equal(decimal.NewFromInt(50000000)), detail.Budget.String())
		assert.NotEmpty(t, detail.ProjectManagerName)
	})

	t.Run("project code is unique per company", func(t *testing.T) {
		p, err := projectsRepo.Get(tenant(companyID), findProject(t, projectsRepo, companyID, "APP-"))
		require.NoError(t, err)

		exists, err := projectsRepo.CodeExists(tenant(companyID), companyID, p.Code)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = projectsRepo.CodeExists(tenant(companyID), companyID, "NOPE-1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("business users", func(t *testing.T) {
		repo := users.NewRepo(pool)
		id, err := repo.FindIDByEmail(ctx, companyID, seeded.TestUsers.PM)
		require.NoError(t, err)
		assert.Positive(t, id)

		list, err := repo.ListByCompany(ctx, companyID)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("overdue invoices", func(t *testing.T) {
		var customerID int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT id FROM customers WHERE company_id = $1 ORDER BY id LIMIT 1`, companyID).Scan(&customerID))
		_, err := pool.Exec(ctx, `
INSERT INTO invoices (company_id, customer_id, invoice_number, issue_date, due_date, status, total)
VALUES ($1, $2, 'INV-001', $3, $4, 'Sent', 1200.10),
       ($1, $2, 'INV-002', $3, $5, 'Sent', 800)`,
			companyID, customerID, now.AddDate(0, 0, -40), now.AddDate(0, 0, -10), now.AddDate(0, 0, 5))
		require.NoError(t, err)

		repo := invoicerepo.NewInvoiceRepository(pool)
		due, err := repo.ListOverdue(ctx, clock.Today(clk))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "INV-001", due[0].InvoiceNumber)
		assert.True(t, due[0].Total.Equal(decimal.RequireFromString("1200.10")), due[0].Total.String())
		assert.NotEmpty(t, due[0].ContactEmail)

		n, err := repo.MarkOverdue(ctx, []int{due[0].ID}, now)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		var status string
		require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM invoices WHERE id = $1`, due[0].ID).Scan(&status))
		assert.Equal(t, string(domain.InvoiceOverdue), status)
	})

	t.Run("identity store", func(t *testing.T) {
		db, err := postgres.NewConnection(&dbCfg)
		require.NoError(t, err)
		defer db.Close()

		repo := repository.NewUserRepository(db)
		account := &authdomain.ApplicationUser{
			ID:        "acc-1",
			UserName:  "Owner@Demo.test",
			Email:     "Owner@Demo.test",
			CompanyID: companyID,
			Status:    authdomain.DefaultStatus,
		}
		require.NoError(t, repo.Create(ctx, account))

		got, err := repo.GetByEmail(ctx, "owner@demo.test")
		require.NoError(t, err)
		assert.Equal(t, "acc-1", got.ID)

		dup := *account
		dup.ID, dup.UserName = "acc-2", "someone-else"
		assert.ErrorIs(t, repo.Create(ctx, &dup), authdomain.ErrDuplicateEmail)

		require.NoError(t, repo.AddRole(ctx, "acc-1", "Manager"))
		require.NoError(t, repo.AddRole(ctx, "acc-1", "Manager"))
		roles, err := repo.GetRoles(ctx, "acc-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"Manager"}, roles)

		require.NoError(t, repo.SetBusinessUserID(ctx, "acc-1", 7))
		got, err = repo.GetByID(ctx, "acc-1")
		require.NoError(t, err)
		require.NotNil(t, got.BusinessUserID)
		assert.Equal(t, 7, *got.BusinessUserID)
	})

	t.Run("clean removes every tenant", func(t *testing.T) {
		deleted, err := seedRepo.Clean(ctx)
		require.NoError(t, err)
		assert.Equal(t, seed.Counts{Companies: 1, Users: 3, Customers: 2, Projects: 2}, deleted)

		counts, err := seedRepo.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, seed.Counts{}, counts)
	})
}

func findProject(t *testing.T, repo *projectrepo.ProjectRepository, companyID int, codePrefix string) int {
	t.Helper()
	items, _, err := repo.List(tenant(companyID), projects.ListFilter{SearchTerm: codePrefix, Limit: 10}, time.Now())
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items[0].ID
}
