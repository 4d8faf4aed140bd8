package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	refreshDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	signalScore     *prometheus.GaugeVec
	compositeScore  *prometheus.GaugeVec
	snapshotAge     prometheus.Gauge
	observations    *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		refreshDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geopulse_refresh_duration_seconds",
				Help:    "Duration of source refresh cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geopulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		signalScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geopulse_signal_score",
				Help: "Last computed 0-100 score per scope and signal",
			},
			[]string{"scope", "signal"},
		),
		compositeScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geopulse_composite_score",
				Help: "Last computed 0-100 composite score per scope",
			},
			[]string{"scope"},
		),
		snapshotAge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "geopulse_snapshot_age_seconds",
				Help: "Age of the served snapshot at last check",
			},
		),
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geopulse_observations_recorded_total",
				Help: "Total observations written per backend and source",
			},
			[]string{"backend", "source"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geopulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRefresh records one completed refresh cycle for a source.
func (r *Recorder) RecordRefresh(source string, seconds float64) {
	r.refreshDuration.WithLabelValues(source).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordScore records a signal-level score.
func (r *Recorder) RecordScore(scope, signal string, score float64) {
	r.signalScore.WithLabelValues(scope, signal).Set(score)
}

// RecordComposite records a composite score.
func (r *Recorder) RecordComposite(scope string, score float64) {
	r.compositeScore.WithLabelValues(scope).Set(score)
}

// RecordSnapshotAge records the served snapshot's age.
func (r *Recorder) RecordSnapshotAge(seconds float64) {
	r.snapshotAge.Set(seconds)
}

// RecordObservation counts one observation written to a backend.
func (r *Recorder) RecordObservation(backend, source string) {
	r.observations.WithLabelValues(backend, source).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
