package repository

import (
	"context"
	"time"

	"GeoPulse/internal/domain/models"
)

// PredictionMarketSource lists open geopolitical contracts with current
// prices, already filtered, risk-priced and region-classified.
type PredictionMarketSource interface {
	Fetch(ctx context.Context) ([]models.Contract, error)
}

// FinancialSource fetches daily percent-move histories for the
// configured instrument set.
type FinancialSource interface {
	Fetch(ctx context.Context) ([]models.InstrumentQuote, error)
}

// GroundSignalSource fetches search-interest series for a term batch.
// Geo-scoped terms are issued per country; implementations are expected
// to pace batches to stay under upstream quotas.
type GroundSignalSource interface {
	FetchInterest(ctx context.Context, terms []models.TrendTerm) ([]models.TermSeries, error)
}

// NarrativeSource fetches daily conflict-news tone for one region.
type NarrativeSource interface {
	FetchTone(ctx context.Context, region Region) ([]models.ToneDay, error)
}

// ConnectivitySource fetches hourly connectivity series and outage
// annotations.
type ConnectivitySource interface {
	FetchTraffic(ctx context.Context, country string) (*models.TrafficSeries, error)
	FetchOutages(ctx context.Context) ([]models.Outage, error)
}

// SupplementalForecastSource fetches the monthly conflict forecast.
// Display only; its output never enters scoring.
type SupplementalForecastSource interface {
	Fetch(ctx context.Context) (*models.ForecastBatch, error)
}

// ContractStream is a live price feed for prediction-market contracts,
// recorded as observations between refresh cycles.
type ContractStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Observation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher pushes observations onto the message bus for asynchronous
// recording.
type Publisher interface {
	Publish(ctx context.Context, o *models.Observation) error
	PublishBatch(ctx context.Context, obs []*models.Observation) error
	Close() error
}

// HistoryStore persists observations and score rows and serves the
// trailing windows baselines are computed from. Appends are best-effort:
// failures are logged and never block a refresh cycle.
type HistoryStore interface {
	AppendObservation(ctx context.Context, o *models.Observation) error
	AppendObservations(ctx context.Context, obs []*models.Observation) error
	QueryObservations(ctx context.Context, source string, since time.Time) ([]models.Observation, error)
	QueryItemObservations(ctx context.Context, itemID string, since time.Time) ([]models.Observation, error)
	AppendScores(ctx context.Context, rows []models.ScoreRecord) error
	LastScoreAt(ctx context.Context, scope string) (time.Time, error)
	QueryScores(ctx context.Context, scope string, since time.Time) ([]models.ScoreRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordRefresh(source string, seconds float64)
	RecordError(kind string)
	RecordScore(scope, signal string, score float64)
	RecordComposite(scope string, score float64)
	RecordSnapshotAge(seconds float64)
	RecordObservation(backend, source string)
	RecordLatency(op string, seconds float64)
}
