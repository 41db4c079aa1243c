package jobs

import (
	"context"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/cache"
	"github.com/GoSim-25-26J-441/erp-backend/internal/invoices"
)

const (
	markOverdueSpec = "0 0 1 * * *"   // daily at 01:00
	cacheStatsSpec  = "0 */5 * * * *" // every five minutes

	CacheStatsJobName = "cache-stats"
)

// OverdueRunner is satisfied by *invoices.MarkOverdueJob.
type OverdueRunner interface {
	Run(ctx context.Context) (int, error)
}

// RegisterDefaults schedules the recurring jobs. A nil runner or stats
// skips that job.
func RegisterDefaults(s *Scheduler, overdue OverdueRunner, stats *cache.Stats, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if overdue != nil {
		err := s.Schedule(markOverdueSpec, QueueCritical, invoices.JobName, func(ctx context.Context) error {
			_, err := overdue.Run(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	if stats != nil {
		if err := s.Schedule(cacheStatsSpec, QueueBackground, CacheStatsJobName, CacheStatsJob(stats, logger)); err != nil {
			return err
		}
	}
	return nil
}

// CacheStatsJob logs the cache counters.
func CacheStatsJob(stats *cache.Stats, logger *zap.Logger) Func {
	return func(context.Context) error {
		hits, misses := stats.Snapshot()
		logger.Info("cache statistics",
			zap.Int64("hits", hits),
			zap.Int64("misses", misses),
			zap.Float64("hit_ratio", stats.HitRatio()))
		return nil
	}
}
