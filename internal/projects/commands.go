package projects

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/cache"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/pipeline"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
)

// signedIn is embedded by commands that only need an authenticated caller.
type signedIn struct{}

func (signedIn) RequiredRoles() []string       { return nil }
func (signedIn) RequiredPermissions() []string { return nil }

type CreateProjectCommand struct {
	signedIn
	Name             string             `json:"name" validate:"required,max=200"`
	Description      string             `json:"description"`
	Code             string             `json:"code" validate:"required,max=50"`
	StartDate        time.Time          `json:"startDate" validate:"required"`
	EndDate          time.Time          `json:"endDate" validate:"required,gtfield=StartDate"`
	Type             domain.ProjectType `json:"type"`
	Priority         domain.Priority    `json:"priority"`
	Budget           decimal.Decimal    `json:"budget" validate:"gt=0"`
	CustomerID       int                `json:"customerId"`
	ProjectManagerID int                `json:"projectManagerId"`
}

type UpdateProjectCommand struct {
	signedIn
	ID               int                  `json:"id" validate:"gt=0"`
	Name             string               `json:"name" validate:"required,max=200"`
	Description      string               `json:"description" validate:"max=2000"`
	StartDate        time.Time            `json:"startDate" validate:"required"`
	EndDate          time.Time            `json:"endDate" validate:"required,gtfield=StartDate"`
	ActualStartDate  *time.Time           `json:"actualStartDate"`
	ActualEndDate    *time.Time           `json:"actualEndDate"`
	Status           domain.ProjectStatus `json:"status"`
	Type             domain.ProjectType   `json:"type"`
	Priority         domain.Priority      `json:"priority"`
	Budget           decimal.Decimal      `json:"budget" validate:"gt=0"`
	ActualCost       decimal.Decimal      `json:"actualCost"`
	Progress         int                  `json:"progress" validate:"gte=0,lte=100"`
	CustomerID       int                  `json:"customerId" validate:"gt=0"`
	ProjectManagerID int                  `json:"projectManagerId" validate:"gt=0"`
}

type DeleteProjectCommand struct {
	signedIn
	ID int `json:"id" validate:"gt=0"`
}

type commandHandlers struct {
	store   Store
	auditor *postgres.Auditor
	cache   cache.Store
	logger  *zap.Logger
}

func (h *commandHandlers) create(ctx context.Context, cmd CreateProjectCommand) (int, error) {
	user := auth.FromContext(ctx)
	companyID, err := user.CompanyID(ctx)
	if err != nil {
		return 0, err
	}

	p := domain.NewProject()
	p.CompanyID = companyID
	p.Name = cmd.Name
	p.Description = cmd.Description
	p.Code = cmd.Code
	p.StartDate = cmd.StartDate
	p.EndDate = cmd.EndDate
	p.Type = orFirst(cmd.Type, domain.ProjectTypes())
	p.Priority = orFirst(cmd.Priority, domain.Priorities())
	p.Budget = cmd.Budget
	p.CustomerID = cmd.CustomerID
	p.ProjectManagerID = cmd.ProjectManagerID
	p.CreatedBy = user.IdentityUserID()
	p.UpdatedBy = p.CreatedBy
	h.auditor.OnCreate(ctx, &p.BaseEntity, domain.KindProject)

	if err := h.store.Create(ctx, p); err != nil {
		return 0, err
	}

	h.invalidate(ctx, companyID)
	return p.ID, nil
}

func (h *commandHandlers) update(ctx context.Context, cmd UpdateProjectCommand) (struct{}, error) {
	user := auth.FromContext(ctx)
	companyID, err := user.CompanyID(ctx)
	if err != nil {
		return struct{}{}, err
	}

	p, err := h.store.Get(ctx, cmd.ID)
	if err != nil {
		return struct{}{}, err
	}
	if p == nil {
		return struct{}{}, apperr.NewNotFound("Project", cmd.ID)
	}

	if ok, err := h.store.CustomerExists(ctx, companyID, cmd.CustomerID); err != nil {
		return struct{}{}, err
	} else if !ok {
		return struct{}{}, apperr.NewNotFound("Customer", cmd.CustomerID)
	}
	if ok, err := h.store.UserExists(ctx, companyID, cmd.ProjectManagerID); err != nil {
		return struct{}{}, err
	} else if !ok {
		return struct{}{}, apperr.NewNotFound("Project Manager", cmd.ProjectManagerID)
	}

	p.Name = cmd.Name
	p.Description = cmd.Description
	p.StartDate = cmd.StartDate
	p.EndDate = cmd.EndDate
	p.ActualStartDate = cmd.ActualStartDate
	p.ActualEndDate = cmd.ActualEndDate
	p.Status = orFirst(cmd.Status, domain.ProjectStatuses())
	p.Type = orFirst(cmd.Type, domain.ProjectTypes())
	p.Priority = orFirst(cmd.Priority, domain.Priorities())
	p.Budget = cmd.Budget
	p.ActualCost = cmd.ActualCost
	p.Progress = cmd.Progress
	p.CustomerID = cmd.CustomerID
	p.ProjectManagerID = cmd.ProjectManagerID
	h.touch(ctx, p)

	if err := h.store.Update(ctx, p); err != nil {
		return struct{}{}, err
	}

	h.invalidate(ctx, companyID)
	return struct{}{}, nil
}

func (h *commandHandlers) delete(ctx context.Context, cmd DeleteProjectCommand) (struct{}, error) {
	companyID, err := auth.FromContext(ctx).CompanyID(ctx)
	if err != nil {
		return struct{}{}, err
	}

	p, err := h.store.Get(ctx, cmd.ID)
	if err != nil {
		return struct{}{}, err
	}
	if p == nil {
		return struct{}{}, apperr.NewNotFound("Project", cmd.ID)
	}

	billable, err := h.store.HasBillableHistory(ctx, p.ID)
	if err != nil {
		return struct{}{}, err
	}

	if billable {
		p.IsDeleted = true
		h.touch(ctx, p)
		if err := h.store.Update(ctx, p); err != nil {
			return struct{}{}, err
		}
		h.logger.Info("project archived", zap.Int("project_id", p.ID), zap.Int("company_id", companyID))
	} else {
		if err := h.store.Purge(ctx, p.ID); err != nil {
			return struct{}{}, err
		}
		h.logger.Info("project deleted", zap.Int("project_id", p.ID), zap.Int("company_id", companyID))
	}

	h.invalidate(ctx, companyID)
	return struct{}{}, nil
}

// orFirst maps an omitted enum field to the first declared value.
func orFirst[E ~string](v E, values []E) E {
	if v == "" {
		return values[0]
	}
	return v
}

// touch stamps the modifying user. Projects record the identity id as well as
// the business id.
func (h *commandHandlers) touch(ctx context.Context, p *domain.Project) {
	p.UpdatedBy = auth.FromContext(ctx).IdentityUserID()
	p.UpdatedByUserID = nil
	h.auditor.OnUpdate(ctx, &p.BaseEntity, domain.KindProject)
}

// invalidate drops every cached project list and detail of the company.
func (h *commandHandlers) invalidate(ctx context.Context, companyID int) {
	if h.cache == nil {
		return
	}
	for _, name := range []string{"GetProjectsQuery", "GetProjectDetailQuery"} {
		prefix := pipeline.CacheKeyPrefix(companyID, name)
		n, err := h.cache.RemoveByPrefix(ctx, prefix)
		if err != nil {
			h.logger.Warn("failed to invalidate project cache", zap.String("prefix", prefix), zap.Error(err))
			continue
		}
		h.logger.Debug(fmt.Sprintf("invalidated %d cache entries", n), zap.String("prefix", prefix))
	}
}
