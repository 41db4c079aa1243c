package projects

import (
	"context"
	"time"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
)

type GetProjectDetailQuery struct {
	ID int `json:"id" validate:"gt=0"`
}

func (GetProjectDetailQuery) UseCache() bool                    { return true }
func (GetProjectDetailQuery) SlidingExpiration() time.Duration  { return time.Minute }
func (GetProjectDetailQuery) AbsoluteExpiration() time.Duration { return 5 * time.Minute }

type GetProjectsQuery struct {
	PageNumber int                   `json:"pageNumber" form:"pageNumber"`
	PageSize   int                   `json:"pageSize" form:"pageSize"`
	Status     *domain.ProjectStatus `json:"status,omitempty" form:"status"`
	CustomerID *int                  `json:"customerId,omitempty" form:"customerId"`
	SearchTerm string                `json:"searchTerm,omitempty" form:"searchTerm"`
}

const (
	defaultPageNumber = 1
	defaultPageSize   = 10
)

// Normalize fills the paging defaults.
func (q GetProjectsQuery) Normalize() GetProjectsQuery {
	if q.PageNumber < 1 {
		q.PageNumber = defaultPageNumber
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	return q
}

func (GetProjectsQuery) UseCache() bool                    { return true }
func (GetProjectsQuery) SlidingExpiration() time.Duration  { return 30 * time.Second }
func (GetProjectsQuery) AbsoluteExpiration() time.Duration { return 2 * time.Minute }

type queryHandlers struct {
	store Store
	clock clock.Clock
}

func (h *queryHandlers) detail(ctx context.Context, q GetProjectDetailQuery) (ProjectDetailDto, error) {
	d, err := h.store.Detail(ctx, q.ID)
	if err != nil {
		return ProjectDetailDto{}, err
	}
	if d == nil {
		return ProjectDetailDto{}, apperr.NewNotFound("Project", q.ID)
	}
	d.BudgetUtilization = budgetUtilization(d.ActualCost, d.Budget)
	return *d, nil
}

func (h *queryHandlers) list(ctx context.Context, q GetProjectsQuery) (apperr.PaginatedList[ProjectDto], error) {
	q = q.Normalize()
	items, total, err := h.store.List(ctx, ListFilter{
		Status:     q.Status,
		CustomerID: q.CustomerID,
		SearchTerm: q.SearchTerm,
		Offset:     apperr.Offset(q.PageNumber, q.PageSize),
		Limit:      q.PageSize,
	}, h.clock.UTCNow())
	if err != nil {
		return apperr.PaginatedList[ProjectDto]{}, err
	}
	return apperr.NewPaginatedList(items, total, q.PageNumber, q.PageSize)
}
