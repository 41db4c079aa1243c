package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/cache"
)

const longRunningThreshold = 500 * time.Millisecond

// Defaults returns the standard chain, outermost first. store may be nil to
// disable response caching.
func Defaults(logger *zap.Logger, store cache.Store, stats *cache.Stats) []Behavior {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("pipeline")

	return []Behavior{
		&UnhandledErrorBehavior{logger: logger},
		&LoggingBehavior{logger: logger},
		AuthorizationBehavior{},
		ValidationBehavior{},
		&PerformanceBehavior{logger: logger, threshold: longRunningThreshold},
		&CachingBehavior{logger: logger, store: store, stats: stats},
	}
}

// UnhandledErrorBehavior logs every failed dispatch and turns handler panics
// into errors.
type UnhandledErrorBehavior struct {
	logger *zap.Logger
}

func NewUnhandledErrorBehavior(logger *zap.Logger) *UnhandledErrorBehavior {
	return &UnhandledErrorBehavior{logger: logger}
}

func (b *UnhandledErrorBehavior) Handle(ctx context.Context, call *Call, next Next) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("panic while handling %s: %v", call.Name, r)
			b.logger.Error("ERP Request: Unhandled Exception for Request "+call.Name,
				zap.String("request_name", call.Name),
				zap.Any("request", call.Request),
				zap.Error(err),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	resp, err = next(ctx)
	if err != nil {
		b.logger.Error("ERP Request: Unhandled Exception for Request "+call.Name,
			zap.String("request_name", call.Name),
			zap.Any("request", call.Request),
			zap.Error(err))
	}
	return resp, err
}

// LoggingBehavior records who sent which request before anything else runs.
type LoggingBehavior struct {
	logger *zap.Logger
}

func NewLoggingBehavior(logger *zap.Logger) *LoggingBehavior {
	return &LoggingBehavior{logger: logger}
}

func (b *LoggingBehavior) Handle(ctx context.Context, call *Call, next Next) (any, error) {
	b.logger.Info("ERP Request: "+call.Name, append(userFields(ctx, b.logger), zap.Any("request", call.Request))...)
	return next(ctx)
}

// userFields resolves the caller for log lines. A business id that cannot be
// resolved is logged as 0.
func userFields(ctx context.Context, logger *zap.Logger) []zap.Field {
	user := auth.FromContext(ctx)

	var businessUserID int
	if user.IsAuthenticated() {
		id, err := user.BusinessUserID(ctx)
		if err != nil {
			logger.Warn("could not resolve business user id", zap.String("identity_user_id", user.IdentityUserID()), zap.Error(err))
		}
		businessUserID = id
	}

	return []zap.Field{
		zap.String("identity_user_id", user.IdentityUserID()),
		zap.Int("business_user_id", businessUserID),
		zap.String("user_name", user.UserName()),
	}
}

// Authorized is implemented by requests that need a signed-in caller. Any
// one of RequiredRoles suffices; every one of RequiredPermissions is needed.
// Both may be empty, which only requires authentication.
type Authorized interface {
	RequiredRoles() []string
	RequiredPermissions() []string
}

type AuthorizationBehavior struct{}

func (AuthorizationBehavior) Handle(ctx context.Context, call *Call, next Next) (any, error) {
	req, ok := call.Request.(Authorized)
	if !ok {
		return next(ctx)
	}

	user := auth.FromContext(ctx)
	if !user.IsAuthenticated() {
		return nil, &apperr.UnauthorizedError{}
	}

	if roles := req.RequiredRoles(); len(roles) > 0 {
		allowed := false
		for _, r := range roles {
			if user.IsInRole(strings.TrimSpace(r)) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, &apperr.ForbiddenError{}
		}
	}

	for _, p := range req.RequiredPermissions() {
		if !user.HasPermission(p) {
			return nil, &apperr.ForbiddenError{}
		}
	}

	return next(ctx)
}

// ValidationBehavior stops a request before its handler when any validator fails.
type ValidationBehavior struct{}

func (ValidationBehavior) Handle(ctx context.Context, call *Call, next Next) (any, error) {
	failures, err := call.Validate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to validate %s: %w", call.Name, err)
	}
	if len(failures) > 0 {
		return nil, apperr.NewValidationError(failures...)
	}
	return next(ctx)
}

// PerformanceBehavior times the inner chain and warns about slow requests.
type PerformanceBehavior struct {
	logger    *zap.Logger
	threshold time.Duration
}

func NewPerformanceBehavior(logger *zap.Logger, threshold time.Duration) *PerformanceBehavior {
	return &PerformanceBehavior{logger: logger, threshold: threshold}
}

func (b *PerformanceBehavior) Handle(ctx context.Context, call *Call, next Next) (any, error) {
	start := time.Now()
	resp, err := next(ctx)
	elapsed := time.Since(start)

	requestDuration.WithLabelValues(call.Name).Observe(elapsed.Seconds())

	if elapsed > b.threshold {
		fields := append(userFields(ctx, b.logger),
			zap.Int64("elapsed_ms", elapsed.Milliseconds()),
			zap.Any("request", call.Request))
		b.logger.Warn(fmt.Sprintf("ERP Long Running Request: %s (%d milliseconds)", call.Name, elapsed.Milliseconds()), fields...)
	}
	return resp, err
}
