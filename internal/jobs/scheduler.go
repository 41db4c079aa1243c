// Package jobs runs recurring and fire-and-forget background work on named
// queues. Each queue has its own worker, so a slow background job never holds
// up a critical one.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Queue string

const (
	QueueCritical   Queue = "critical"
	QueueDefault    Queue = "default"
	QueueBackground Queue = "background"
)

const queueCapacity = 64

var (
	ErrUnknownQueue = errors.New("unknown job queue")
	ErrQueueFull    = errors.New("job queue is full")
	ErrStopped      = errors.New("scheduler is stopped")
)

var jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "erp_job_runs_total",
	Help: "Background job runs by job and outcome",
}, []string{"job", "status"})

// Func is a unit of background work.
type Func func(ctx context.Context) error

type task struct {
	name string
	fn   Func
}

type Scheduler struct {
	cron   *cron.Cron
	queues map[Queue]chan task
	logger *zap.Logger

	mu      sync.RWMutex
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler uses six-field cron specs, seconds first.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		queues: make(map[Queue]chan task),
		logger: logger.Named("jobs"),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, q := range []Queue{QueueCritical, QueueDefault, QueueBackground} {
		s.queues[q] = make(chan task, queueCapacity)
	}
	return s
}

// Schedule enqueues fn on queue every time expr fires.
func (s *Scheduler) Schedule(expr string, queue Queue, name string, fn Func) error {
	if _, ok := s.queues[queue]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQueue, queue)
	}
	_, err := s.cron.AddFunc(expr, func() {
		if err := s.Enqueue(queue, name, fn); err != nil {
			s.logger.Warn("scheduled job skipped", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("expr", expr), zap.String("queue", string(queue)))
	return nil
}

// Enqueue runs fn once on queue as soon as its worker is free.
func (s *Scheduler) Enqueue(queue Queue, name string, fn Func) error {
	ch, ok := s.queues[queue]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQueue, queue)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return ErrStopped
	}
	select {
	case ch <- task{name: name, fn: fn}:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, queue)
	}
}

// Start launches the queue workers and the cron clock.
func (s *Scheduler) Start() {
	for q, ch := range s.queues {
		s.wg.Add(1)
		go s.work(q, ch)
	}
	s.cron.Start()
	s.logger.Info("job scheduler started", zap.Int("entries", len(s.cron.Entries())))
}

// Stop halts the clock, lets running jobs finish until ctx expires and
// drops whatever is still queued.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("job scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) work(q Queue, ch <-chan task) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case t := <-ch:
			s.run(q, t)
		}
	}
}

func (s *Scheduler) run(q Queue, t task) {
	start := time.Now()
	fields := []zap.Field{zap.String("job", t.name), zap.String("queue", string(q))}

	defer func() {
		if r := recover(); r != nil {
			jobRuns.WithLabelValues(t.name, "panic").Inc()
			s.logger.Error("job panicked", append(fields,
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))...)
		}
	}()

	s.logger.Info("job started", fields...)
	if err := t.fn(s.ctx); err != nil {
		jobRuns.WithLabelValues(t.name, "failed").Inc()
		s.logger.Error("job failed", append(fields, zap.Duration("elapsed", time.Since(start)), zap.Error(err))...)
		return
	}
	jobRuns.WithLabelValues(t.name, "succeeded").Inc()
	s.logger.Info("job completed", append(fields, zap.Duration("elapsed", time.Since(start)))...)
}
