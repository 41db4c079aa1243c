package projects

import (
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/cache"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
	"github.com/GoSim-25-26J-441/erp-backend/internal/pipeline"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
)

// Deps wires the project handlers. Cache may be nil.
type Deps struct {
	Store   Store
	Auditor *postgres.Auditor
	Cache   cache.Store
	Clock   clock.Clock
	Logger  *zap.Logger
}

// Register installs every project command and query on m.
func Register(m *pipeline.Mediator, deps Deps) {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Auditor == nil {
		deps.Auditor = postgres.NewAuditor(deps.Clock, deps.Logger)
	}

	v := pipeline.NewValidator()
	commands := &commandHandlers{store: deps.Store, auditor: deps.Auditor, cache: deps.Cache, logger: deps.Logger.Named("projects")}
	queries := &queryHandlers{store: deps.Store, clock: deps.Clock}

	pipeline.Register[CreateProjectCommand, int](m, pipeline.HandlerFunc[CreateProjectCommand, int](commands.create),
		pipeline.Rules[CreateProjectCommand](v), createRules{store: deps.Store})
	pipeline.Register[UpdateProjectCommand, struct{}](m, pipeline.HandlerFunc[UpdateProjectCommand, struct{}](commands.update),
		pipeline.Rules[UpdateProjectCommand](v), updateRules{clock: deps.Clock})
	pipeline.Register[DeleteProjectCommand, struct{}](m, pipeline.HandlerFunc[DeleteProjectCommand, struct{}](commands.delete),
		pipeline.Rules[DeleteProjectCommand](v))

	pipeline.Register[GetProjectDetailQuery, ProjectDetailDto](m, pipeline.HandlerFunc[GetProjectDetailQuery, ProjectDetailDto](queries.detail),
		pipeline.Rules[GetProjectDetailQuery](v))
	pipeline.Register[GetProjectsQuery, apperr.PaginatedList[ProjectDto]](m, pipeline.HandlerFunc[GetProjectsQuery, apperr.PaginatedList[ProjectDto]](queries.list))
}
