package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: map[string]int{}} }

func (m *fakeMetrics) RecordRefresh(string, float64)       {}
func (m *fakeMetrics) RecordScore(string, string, float64) {}
func (m *fakeMetrics) RecordComposite(string, float64)     {}
func (m *fakeMetrics) RecordSnapshotAge(float64)           {}
func (m *fakeMetrics) RecordObservation(string, string)    {}
func (m *fakeMetrics) RecordLatency(string, float64)       {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

// fakeHistory is an in-memory HistoryStore.
type fakeHistory struct {
	mu       sync.Mutex
	obs      []models.Observation
	scores   []models.ScoreRecord
	queryErr error
}

func (h *fakeHistory) AppendObservation(_ context.Context, o *models.Observation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.obs = append(h.obs, *o)
	return nil
}

func (h *fakeHistory) AppendObservations(ctx context.Context, obs []*models.Observation) error {
	for _, o := range obs {
		if err := h.AppendObservation(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (h *fakeHistory) QueryObservations(_ context.Context, source string, since time.Time) ([]models.Observation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.queryErr != nil {
		return nil, h.queryErr
	}
	var out []models.Observation
	for _, o := range h.obs {
		if o.Source == source && !o.At.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (h *fakeHistory) QueryItemObservations(_ context.Context, itemID string, since time.Time) ([]models.Observation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.Observation
	for _, o := range h.obs {
		if o.ItemID == itemID && !o.At.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (h *fakeHistory) AppendScores(_ context.Context, rows []models.ScoreRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scores = append(h.scores, rows...)
	return nil
}

func (h *fakeHistory) LastScoreAt(_ context.Context, scope string) (time.Time, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var last time.Time
	for _, r := range h.scores {
		if r.Scope == scope && r.At.After(last) {
			last = r.At
		}
	}
	return last, nil
}

func (h *fakeHistory) QueryScores(_ context.Context, scope string, since time.Time) ([]models.ScoreRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.ScoreRecord
	for _, r := range h.scores {
		if r.Scope == scope && !r.At.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (h *fakeHistory) Health(context.Context) error { return nil }
func (h *fakeHistory) Close() error                 { return nil }

var _ drepo.HistoryStore = (*fakeHistory)(nil)

type fakeMarketSource struct {
	contracts []models.Contract
	err       error
}

func (s *fakeMarketSource) Fetch(context.Context) ([]models.Contract, error) {
	return s.contracts, s.err
}

type fakeFinancialSource struct {
	quotes []models.InstrumentQuote
	err    error
}

func (s *fakeFinancialSource) Fetch(context.Context) ([]models.InstrumentQuote, error) {
	return s.quotes, s.err
}

type fakeGroundSource struct {
	series []models.TermSeries
	err    error
}

func (s *fakeGroundSource) FetchInterest(context.Context, []models.TrendTerm) ([]models.TermSeries, error) {
	return s.series, s.err
}

type fakeNarrativeSource struct {
	days map[drepo.Region][]models.ToneDay
	err  error
}

func (s *fakeNarrativeSource) FetchTone(_ context.Context, r drepo.Region) ([]models.ToneDay, error) {
	return s.days[r], s.err
}

type fakeConnectivitySource struct {
	traffic map[string]*models.TrafficSeries
	outages []models.Outage
}

func (s *fakeConnectivitySource) FetchTraffic(_ context.Context, country string) (*models.TrafficSeries, error) {
	if ts, ok := s.traffic[country]; ok {
		return ts, nil
	}
	return &models.TrafficSeries{Country: country}, nil
}

func (s *fakeConnectivitySource) FetchOutages(context.Context) ([]models.Outage, error) {
	return s.outages, nil
}

type fakeForecastSource struct {
	batch *models.ForecastBatch
	err   error
}

func (s *fakeForecastSource) Fetch(context.Context) (*models.ForecastBatch, error) {
	return s.batch, s.err
}

// seedObservations writes n hourly readings of value v for one item.
func seedObservations(h *fakeHistory, itemID, region, source string, n int, v float64, now time.Time) {
	for i := 0; i < n; i++ {
		h.obs = append(h.obs, models.Observation{
			ItemID: itemID,
			At:     now.Add(-time.Duration(n-i) * time.Hour),
			Value:  v,
			Region: region,
			Source: source,
		})
	}
}
