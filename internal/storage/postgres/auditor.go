package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
)

const systemUser = "system"

// Auditor stamps audit columns and the tenant key before a write. It never
// fails the write: an unresolvable business user leaves the column nil.
type Auditor struct {
	clock  clock.Clock
	logger *zap.Logger
}

func NewAuditor(clk clock.Clock, logger *zap.Logger) *Auditor {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{clock: clk, logger: logger.Named("auditor")}
}

func (a *Auditor) Now() time.Time {
	return a.clock.UTCNow()
}

func (a *Auditor) OnCreate(ctx context.Context, e *domain.BaseEntity, kind domain.Kind) {
	user := auth.FromContext(ctx)
	now := a.clock.UTCNow()

	e.CreatedAt = now
	e.UpdatedAt = now

	if kind == domain.KindUser {
		e.CreatedBy = user.IdentityUserID()
		if e.CreatedBy == "" {
			e.CreatedBy = systemUser
		}
	}

	if !user.IsAuthenticated() {
		return
	}

	if id := a.businessUserID(ctx, user); id > 0 {
		e.CreatedByUserID = &id
	}

	if e.CompanyID == 0 {
		companyID, err := user.CompanyID(ctx)
		if err != nil {
			a.logger.Warn("could not resolve company for new entity", zap.String("kind", string(kind)), zap.Error(err))
		}
		e.CompanyID = companyID
	}
}

func (a *Auditor) OnUpdate(ctx context.Context, e *domain.BaseEntity, kind domain.Kind) {
	user := auth.FromContext(ctx)

	e.UpdatedAt = a.clock.UTCNow()

	if kind == domain.KindUser {
		e.UpdatedBy = user.IdentityUserID()
		if e.UpdatedBy == "" {
			e.UpdatedBy = systemUser
		}
	}

	if !user.IsAuthenticated() {
		return
	}

	if id := a.businessUserID(ctx, user); id > 0 {
		e.UpdatedByUserID = &id
	}
}

func (a *Auditor) businessUserID(ctx context.Context, user *auth.CurrentUser) int {
	id, err := user.BusinessUserID(ctx)
	if err != nil {
		a.logger.Warn("could not resolve business user for audit", zap.String("identity_user_id", user.IdentityUserID()), zap.Error(err))
		return 0
	}
	return id
}
