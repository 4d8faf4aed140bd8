package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/scoring"
	"GeoPulse/pkg/cache"
	"GeoPulse/pkg/logger"
)

// MarketResult is one cycle's output from the prediction-market source:
// per-scope signals plus the stats the score history rows carry.
type MarketResult struct {
	Signals   map[string]*models.Signal // region keys plus "global"
	Alerts    []models.Alert
	Contracts int
	Volume    float64
}

// MarketRefresher turns open prediction-market contracts into scored
// signals. Each cycle fetches current prices, records them as
// observations, and scores every contract against its trailing
// baseline. Baselines are cached so demand-triggered rebuilds between
// ticks skip the history query.
type MarketRefresher struct {
	source  drepo.PredictionMarketSource
	rec     *ObservationRecorder
	history drepo.HistoryStore
	cache   cache.Service
	logger  *logger.Logger
	metrics drepo.Metrics

	baselineCfg scoring.BaselineConfig
	window      time.Duration
	moveAlertPP float64

	tracker ContractTracker

	mu          sync.Mutex
	lastAlerted map[string]float64 // contract id -> last price we alerted at
}

// ContractTracker follows the current contract set. The live stream
// implements it so its subscriptions track each cycle's fetch.
type ContractTracker interface {
	Track(contracts []models.Contract)
}

func NewMarketRefresher(
	source drepo.PredictionMarketSource,
	rec *ObservationRecorder,
	history drepo.HistoryStore,
	c cache.Service,
	log *logger.Logger,
	metrics drepo.Metrics,
) *MarketRefresher {
	return &MarketRefresher{
		source:      source,
		rec:         rec,
		history:     history,
		cache:       c,
		logger:      log,
		metrics:     metrics,
		baselineCfg: scoring.DefaultBaselineConfig(),
		window:      14 * 24 * time.Hour,
		moveAlertPP: 0.05,
		lastAlerted: make(map[string]float64),
	}
}

// SetTracker attaches a contract tracker, typically the live stream.
func (m *MarketRefresher) SetTracker(t ContractTracker) { m.tracker = t }

// Refresh runs one market cycle.
func (m *MarketRefresher) Refresh(ctx context.Context, now time.Time) (*MarketResult, error) {
	contracts, err := m.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch contracts: %w", err)
	}
	if m.tracker != nil {
		m.tracker.Track(contracts)
	}

	// Baselines first, so the current price is scored against history
	// that does not include it.
	baselines := m.baselines(ctx, contracts, now)
	m.record(ctx, contracts, now)

	res := &MarketResult{
		Signals:   make(map[string]*models.Signal),
		Contracts: len(contracts),
	}

	byRegion := make(map[string][]scoring.Item)
	var all []scoring.Item
	for _, c := range contracts {
		res.Volume += c.Volume
		b, ok := baselines[c.ID]
		if !ok {
			continue
		}
		item := scoring.Item{
			ID:       c.ID,
			Label:    c.Question,
			Value:    c.RiskPrice,
			Weight:   c.Volume,
			Baseline: b,
		}
		all = append(all, item)
		if drepo.IsValidRegion(drepo.Region(c.Region)) {
			byRegion[c.Region] = append(byRegion[c.Region], item)
		}
		if alert, ok := m.moverAlert(c, b); ok {
			res.Alerts = append(res.Alerts, alert)
		}
	}

	for _, region := range drepo.AllRegions() {
		res.Signals[string(region)] = scoring.AggregateItems(
			models.SignalMarket, string(region), byRegion[string(region)], now)
	}
	res.Signals[drepo.ScopeGlobal] = scoring.AggregateItems(
		models.SignalMarket, drepo.ScopeGlobal, all, now)

	for scope, sig := range res.Signals {
		if !sig.Insufficient {
			m.metrics.RecordScore(scope, models.SignalMarket, sig.Score)
		}
	}
	return res, nil
}

// record appends this cycle's prices as observations, best-effort.
func (m *MarketRefresher) record(ctx context.Context, contracts []models.Contract, now time.Time) {
	obs := make([]*models.Observation, 0, len(contracts))
	for _, c := range contracts {
		obs = append(obs, &models.Observation{
			ItemID: c.ID,
			At:     now,
			Value:  c.RiskPrice,
			Weight: c.Volume,
			Region: c.Region,
			Source: models.SignalMarket,
		})
	}
	if err := m.rec.ProcessBatch(ctx, obs); err != nil {
		m.logger.Warn("recording market observations failed", logger.Error(err))
	}
}

// baselines loads each contract's trailing baseline, preferring the
// cache and falling back to a history query. A history outage degrades
// to whatever baselines are still cached.
func (m *MarketRefresher) baselines(ctx context.Context, contracts []models.Contract, now time.Time) map[string]models.Baseline {
	out := make(map[string]models.Baseline, len(contracts))
	var missing []models.Contract
	for _, c := range contracts {
		var raw string
		if err := m.cache.Get(ctx, baselineKey(c.ID), &raw); err == nil {
			var b models.Baseline
			if json.Unmarshal([]byte(raw), &b) == nil {
				out[c.ID] = b
				continue
			}
		}
		missing = append(missing, c)
	}
	if len(missing) == 0 {
		return out
	}

	since := now.Add(-m.window)
	window, err := m.history.QueryObservations(ctx, models.SignalMarket, since)
	if err != nil {
		m.logger.Error("history query failed, scoring on cached baselines only",
			logger.Error(err), logger.Int("missing", len(missing)))
		m.metrics.RecordError("history_query")
		return out
	}

	grouped := make(map[string][]models.Observation)
	for _, o := range window {
		grouped[o.ItemID] = append(grouped[o.ItemID], o)
	}
	for _, c := range missing {
		b, ok := scoring.ComputeBaseline(c.ID, grouped[c.ID], now, m.baselineCfg)
		if !ok {
			continue
		}
		out[c.ID] = b
		if raw, err := json.Marshal(b); err == nil {
			if err := m.cache.Set(ctx, baselineKey(c.ID), string(raw), 2*time.Minute); err != nil {
				m.logger.Debug("baseline cache write failed", logger.Error(err))
			}
		}
	}
	return out
}

// moverAlert flags a contract whose price moved at least moveAlertPP
// since yesterday. Each contract re-alerts only after moving again by
// the same margin from the last alerted price.
func (m *MarketRefresher) moverAlert(c models.Contract, b models.Baseline) (models.Alert, bool) {
	if b.ValueDayAgo == nil {
		return models.Alert{}, false
	}
	move := c.RiskPrice - *b.ValueDayAgo
	if math.Abs(move) < m.moveAlertPP {
		return models.Alert{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.lastAlerted[c.ID]; ok && math.Abs(c.RiskPrice-last) < m.moveAlertPP {
		return models.Alert{}, false
	}
	m.lastAlerted[c.ID] = c.RiskPrice

	direction := "up"
	if move < 0 {
		direction = "down"
	}
	return models.Alert{
		Type:   "contract",
		Region: c.Region,
		Text: fmt.Sprintf("%s moved %s %.0fpp in 24h (now %.0f%%)",
			c.Question, direction, math.Abs(move)*100, c.RiskPrice*100),
		RiskRising: move > 0,
	}, true
}

func baselineKey(id string) string {
	return cache.GenerateKey("baseline:market", id)
}
