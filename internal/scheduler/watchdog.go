package scheduler

import (
	"context"
	"time"

	"GeoPulse/internal/domain/repository"
	"GeoPulse/internal/domain/service"
	"GeoPulse/pkg/logger"
)

// ageReader reports how old the served snapshot is.
type ageReader interface {
	Age(now time.Time) time.Duration
}

// Watchdog is the recovery path for a stalled refresh loop: when the
// served snapshot grows past MaxAge it forces a synchronous rebuild
// instead of waiting for the next tick.
type Watchdog struct {
	store     ageReader
	refresher service.Refresher
	logger    *logger.Logger
	metrics   repository.Metrics

	MaxAge   time.Duration
	Interval time.Duration
}

func NewWatchdog(store ageReader, r service.Refresher, log *logger.Logger, metrics repository.Metrics) *Watchdog {
	return &Watchdog{
		store:     store,
		refresher: r,
		logger:    log,
		metrics:   metrics,
		MaxAge:    10 * time.Minute,
		Interval:  time.Minute,
	}
}

// Task wraps the watchdog check as a scheduler task.
func (w *Watchdog) Task() *Task {
	return &Task{
		Name:       "watchdog",
		StartDelay: w.Interval,
		Interval:   w.Interval,
		Run:        w.check,
	}
}

func (w *Watchdog) check(ctx context.Context) error {
	age := w.store.Age(time.Now())
	w.metrics.RecordSnapshotAge(age.Seconds())
	if age <= w.MaxAge {
		return nil
	}

	w.logger.Warn("snapshot stale, forcing rebuild",
		logger.Duration("age", age),
		logger.Duration("max_age", w.MaxAge))
	w.metrics.RecordError("stale_snapshot")

	if err := w.refresher.Rebuild(ctx); err != nil {
		return err
	}
	return nil
}
