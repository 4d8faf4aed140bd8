package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"GeoPulse/internal/domain/repository"
	"GeoPulse/pkg/logger"
)

// Task is one periodic refresh job. StartDelay staggers first runs so
// external sources are not hit in a burst at boot.
type Task struct {
	Name       string
	StartDelay time.Duration
	Interval   time.Duration
	Run        func(ctx context.Context) error

	running atomic.Bool
}

// Scheduler drives one goroutine per task. A tick is skipped, not
// queued, while the previous run of the same task is still in flight.
type Scheduler struct {
	tasks   []*Task
	logger  *logger.Logger
	metrics repository.Metrics

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(log *logger.Logger, metrics repository.Metrics) *Scheduler {
	return &Scheduler{logger: log, metrics: metrics}
}

// Register adds a task. Must be called before Start.
func (s *Scheduler) Register(t *Task) {
	s.tasks = append(s.tasks, t)
}

// Start launches every registered task loop. Non-blocking.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	s.logger.Info("scheduler started", logger.Int("tasks", len(s.tasks)))
}

// Stop cancels all task loops and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Kick runs a named task out of band, honoring the same single-flight
// guard as the ticker. Returns false when the task is unknown or
// already running.
func (s *Scheduler) Kick(ctx context.Context, name string) bool {
	for _, t := range s.tasks {
		if t.Name == name {
			return s.execute(ctx, t)
		}
	}
	return false
}

func (s *Scheduler) loop(ctx context.Context, t *Task) {
	defer s.wg.Done()

	if t.StartDelay > 0 {
		select {
		case <-time.After(t.StartDelay):
		case <-ctx.Done():
			return
		}
	}

	s.execute(ctx, t)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.execute(ctx, t)
		case <-ctx.Done():
			return
		}
	}
}

// execute runs one cycle unless the previous one is still going.
func (s *Scheduler) execute(ctx context.Context, t *Task) bool {
	if !t.running.CompareAndSwap(false, true) {
		s.logger.Warn("refresh cycle still running, skipping tick",
			logger.String("task", t.Name))
		return false
	}
	defer t.running.Store(false)

	start := time.Now()
	err := t.Run(ctx)
	elapsed := time.Since(start)
	s.metrics.RecordRefresh(t.Name, elapsed.Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.metrics.RecordError("refresh_" + t.Name)
		s.logger.Error("refresh cycle failed",
			logger.String("task", t.Name),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return false
	}
	s.logger.Debug("refresh cycle done",
		logger.String("task", t.Name),
		logger.Duration("elapsed", elapsed))
	return true
}
