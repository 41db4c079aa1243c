package http

import (
	"context"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/pipeline"
)

// Notifier pushes a message to everyone watching a project.
type Notifier interface {
	SendNotificationToGroup(ctx context.Context, group, message, kind string) error
}

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	mediator *pipeline.Mediator
	notifier Notifier
	logger   *zap.Logger
}

func New(mediator *pipeline.Mediator, notifier Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{mediator: mediator, notifier: notifier, logger: logger.Named("projects_http")}
}

type listQuery struct {
	PageNumber int    `form:"pageNumber"`
	PageSize   int    `form:"pageSize"`
	Status     string `form:"status"`
	CustomerID *int   `form:"customerId"`
	SearchTerm string `form:"searchTerm"`
}
