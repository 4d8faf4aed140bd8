package service

import (
	"context"
	"time"

	"GeoPulse/internal/domain/models"
)

// SnapshotReader serves the last fully-computed snapshot. Never blocks
// on a fetch; before the first build it returns ok=false.
type SnapshotReader interface {
	Latest() (*models.Snapshot, bool)
	Status() []models.SourceStatus
}

// Refresher kicks snapshot rebuilds.
type Refresher interface {
	// TriggerRefreshIfStale starts a background rebuild when the snapshot
	// is older than maxAge. Idempotent and non-blocking.
	TriggerRefreshIfStale(maxAge time.Duration) bool
	// Rebuild runs a full synchronous rebuild (watchdog recovery path).
	Rebuild(ctx context.Context) error
}
