package usecase

import (
	"context"
	"fmt"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
)

// ObservationRecorder routes observations to the configured recording
// backend: straight into ClickHouse, or through Kafka for deployments
// that decouple ingest from storage.
type ObservationRecorder struct {
	pub     drepo.Publisher
	store   drepo.HistoryStore
	metrics drepo.Metrics
	backend string
}

// NewObservationRecorder creates a new ObservationRecorder instance.
func NewObservationRecorder(
	pub drepo.Publisher,
	store drepo.HistoryStore,
	metrics drepo.Metrics,
	backend string,
) *ObservationRecorder {
	return &ObservationRecorder{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process records a single observation through the configured backend.
func (r *ObservationRecorder) Process(ctx context.Context, o *models.Observation) error {
	if o == nil {
		return fmt.Errorf("observation is nil")
	}

	start := time.Now()
	var err error

	switch r.backend {
	case "kafka":
		err = r.pub.Publish(ctx, o)
	case "clickhouse":
		err = r.store.AppendObservation(ctx, o)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("record")
		return fmt.Errorf("record observation: %w", err)
	}

	r.metrics.RecordObservation(r.backend, o.Source)
	r.metrics.RecordLatency("record", time.Since(start).Seconds())
	return nil
}

// ProcessBatch records multiple observations in a batch.
func (r *ObservationRecorder) ProcessBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch r.backend {
	case "kafka":
		err = r.pub.PublishBatch(ctx, obs)
	case "clickhouse":
		err = r.store.AppendObservations(ctx, obs)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("record_batch")
		return fmt.Errorf("record batch: %w", err)
	}

	for _, o := range obs {
		r.metrics.RecordObservation(r.backend, o.Source)
	}
	r.metrics.RecordLatency("record_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (r *ObservationRecorder) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}
