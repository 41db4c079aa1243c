// Package projects holds the project commands and queries and their validators.
// Handlers are registered on a pipeline.Mediator and reach the database
// through Store.
package projects

import (
	"context"
	"time"

	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
)

// Store is the persistence the project handlers and validators need. Reads are
// scoped to the caller's company by the implementation.
type Store interface {
	CodeExists(ctx context.Context, companyID int, code string) (bool, error)
	CustomerExists(ctx context.Context, companyID, customerID int) (bool, error)
	UserExists(ctx context.Context, companyID, userID int) (bool, error)

	Create(ctx context.Context, p *domain.Project) error
	// Get returns nil without error when the project is missing or deleted.
	Get(ctx context.Context, id int) (*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	HasBillableHistory(ctx context.Context, id int) (bool, error)
	// Purge removes the project with its members and tasks.
	Purge(ctx context.Context, id int) error

	// Detail returns nil without error when the project is not visible.
	Detail(ctx context.Context, id int) (*ProjectDetailDto, error)
	List(ctx context.Context, filter ListFilter, now time.Time) ([]ProjectDto, int, error)
}

// ListFilter is the store-facing part of GetProjectsQuery.
type ListFilter struct {
	Status     *domain.ProjectStatus
	CustomerID *int
	SearchTerm string
	Offset     int
	Limit      int
}
