package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
)

var auditNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestAuditor_OnCreate(t *testing.T) {
	a := NewAuditor(clock.Fixed{At: auditNow}, nil)

	t.Run("authenticated user fills tenant and business id", func(t *testing.T) {
		ctx := userCtx(map[string]string{auth.ClaimCompanyID: "4", auth.ClaimBusinessUserID: "12"})

		var e domain.BaseEntity
		a.OnCreate(ctx, &e, domain.KindProject)

		assert.Equal(t, auditNow, e.CreatedAt)
		assert.Equal(t, auditNow, e.UpdatedAt)
		assert.Equal(t, 4, e.CompanyID)
		require.NotNil(t, e.CreatedByUserID)
		assert.Equal(t, 12, *e.CreatedByUserID)
		assert.Empty(t, e.CreatedBy, "identity id is only stamped on users")
	})

	t.Run("explicit company is kept", func(t *testing.T) {
		ctx := userCtx(map[string]string{auth.ClaimCompanyID: "4"})

		e := domain.BaseEntity{CompanyID: 9}
		a.OnCreate(ctx, &e, domain.KindCustomer)

		assert.Equal(t, 9, e.CompanyID)
		assert.Nil(t, e.CreatedByUserID)
	})

	t.Run("users kind records identity id", func(t *testing.T) {
		ctx := userCtx(map[string]string{auth.ClaimCompanyID: "4"})

		var e domain.BaseEntity
		a.OnCreate(ctx, &e, domain.KindUser)
		assert.Equal(t, "identity-1", e.CreatedBy)
	})

	t.Run("anonymous users kind falls back to system", func(t *testing.T) {
		var e domain.BaseEntity
		a.OnCreate(context.Background(), &e, domain.KindUser)

		assert.Equal(t, "system", e.CreatedBy)
		assert.Zero(t, e.CompanyID)
		assert.Nil(t, e.CreatedByUserID)
	})
}

func TestAuditor_OnUpdate(t *testing.T) {
	a := NewAuditor(clock.Fixed{At: auditNow}, nil)
	ctx := userCtx(map[string]string{auth.ClaimCompanyID: "4", auth.ClaimBusinessUserID: "12"})

	e := domain.BaseEntity{CreatedAt: auditNow.Add(-time.Hour), CompanyID: 4}
	a.OnUpdate(ctx, &e, domain.KindUser)

	assert.Equal(t, auditNow, e.UpdatedAt)
	assert.Equal(t, auditNow.Add(-time.Hour), e.CreatedAt)
	assert.Equal(t, "identity-1", e.UpdatedBy)
	require.NotNil(t, e.UpdatedByUserID)
	assert.Equal(t, 12, *e.UpdatedByUserID)
}
