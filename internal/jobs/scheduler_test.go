package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GoSim-25-26J-441/erp-backend/internal/cache"
)

func stopScheduler(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestEnqueue_RunsJob(t *testing.T) {
	s := NewScheduler(nil)
	s.Start()
	defer stopScheduler(t, s)

	done := make(chan struct{})
	require.NoError(t, s.Enqueue(QueueDefault, "once", func(context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestEnqueue_UnknownQueue(t *testing.T) {
	s := NewScheduler(nil)
	err := s.Enqueue("reports", "x", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownQueue)

	err = s.Schedule("@every 1s", "reports", "x", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownQueue)
}

func TestSchedule_InvalidSpec(t *testing.T) {
	s := NewScheduler(nil)
	assert.Error(t, s.Schedule("not a cron expression", QueueDefault, "x", func(context.Context) error { return nil }))
}

func TestQueues_AreIndependent(t *testing.T) {
	s := NewScheduler(nil)
	s.Start()
	defer stopScheduler(t, s)

	release := make(chan struct{})
	require.NoError(t, s.Enqueue(QueueBackground, "slow", func(ctx context.Context) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}))

	critical := make(chan struct{})
	require.NoError(t, s.Enqueue(QueueCritical, "urgent", func(context.Context) error {
		close(critical)
		return nil
	}))

	select {
	case <-critical:
	case <-time.After(2 * time.Second):
		t.Fatal("critical job waited on the background queue")
	}
	close(release)
}

func TestPanicIsRecovered(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := NewScheduler(zap.New(core))
	s.Start()
	defer stopScheduler(t, s)

	var after atomic.Bool
	require.NoError(t, s.Enqueue(QueueDefault, "explodes", func(context.Context) error { panic("boom") }))
	require.NoError(t, s.Enqueue(QueueDefault, "fails", func(context.Context) error { return errors.New("nope") }))
	require.NoError(t, s.Enqueue(QueueDefault, "after", func(context.Context) error {
		after.Store(true)
		return nil
	}))

	require.Eventually(t, after.Load, 2*time.Second, 10*time.Millisecond, "worker survives a panic")
	assert.Equal(t, 1, logs.FilterMessage("job panicked").Len())
	assert.Equal(t, 1, logs.FilterMessage("job failed").Len())
}

func TestSchedule_FiresOnClock(t *testing.T) {
	s := NewScheduler(nil)
	var runs atomic.Int32
	require.NoError(t, s.Schedule("@every 1s", QueueBackground, "tick", func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	s.Start()
	defer stopScheduler(t, s)

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestStop_RejectsNewWork(t *testing.T) {
	s := NewScheduler(nil)
	s.Start()
	stopScheduler(t, s)

	assert.ErrorIs(t, s.Enqueue(QueueDefault, "late", func(context.Context) error { return nil }), ErrStopped)
	stopScheduler(t, s)
}

type countingRunner struct{ calls atomic.Int32 }

func (r *countingRunner) Run(context.Context) (int, error) {
	r.calls.Add(1)
	return 3, nil
}

func TestRegisterDefaults(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, RegisterDefaults(s, &countingRunner{}, &cache.Stats{}, nil))
	assert.Len(t, s.cron.Entries(), 2)

	s = NewScheduler(nil)
	require.NoError(t, RegisterDefaults(s, nil, nil, nil))
	assert.Empty(t, s.cron.Entries())
}

func TestCacheStatsJob(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	stats := &cache.Stats{}
	stats.Hit()
	stats.Hit()
	stats.Miss()

	require.NoError(t, CacheStatsJob(stats, zap.New(core))(context.Background()))

	entries := logs.FilterMessage("cache statistics").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(2), fields["hits"])
	assert.Equal(t, int64(1), fields["misses"])
}
