package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/scoring"
	"GeoPulse/internal/store"
	"GeoPulse/pkg/logger"
)

// SnapshotBuilder assembles the served snapshot. Each rebuild fetches
// the two fast sources inline, folds in the slow-source slots the
// background tasks maintain, blends composites and publishes the result
// as a single atomic swap.
type SnapshotBuilder struct {
	market    *MarketRefresher
	financial *FinancialRefresher
	store     *store.Store
	history   drepo.HistoryStore
	logger    *logger.Logger
	metrics   drepo.Metrics

	weights         scoring.Weights
	persistInterval time.Duration

	rebuilding atomic.Bool
}

func NewSnapshotBuilder(
	market *MarketRefresher,
	financial *FinancialRefresher,
	st *store.Store,
	history drepo.HistoryStore,
	log *logger.Logger,
	metrics drepo.Metrics,
) *SnapshotBuilder {
	return &SnapshotBuilder{
		market:          market,
		financial:       financial,
		store:           st,
		history:         history,
		logger:          log,
		metrics:         metrics,
		weights:         scoring.DefaultWeights(),
		persistInterval: 10 * time.Minute,
	}
}

// Rebuild runs one full snapshot cycle. Safe to call concurrently; only
// one rebuild runs at a time and the rest return immediately.
func (b *SnapshotBuilder) Rebuild(ctx context.Context) error {
	if !b.rebuilding.CompareAndSwap(false, true) {
		return nil
	}
	defer b.rebuilding.Store(false)

	now := time.Now().UTC()
	b.store.BeginFetch("snapshot")

	marketRes, err := b.market.Refresh(ctx, now)
	if err != nil {
		// Without market data the snapshot would be mostly stale slots;
		// keep serving the previous one.
		b.store.EndFetch("snapshot", err)
		return fmt.Errorf("market refresh: %w", err)
	}

	financialSignals, err := b.financial.Refresh(ctx, now)
	if err != nil {
		// Degrade to market + slots; regional weights renormalize.
		b.logger.Warn("financial refresh failed, composites degrade", logger.Error(err))
		b.metrics.RecordError("financial_refresh")
		financialSignals = map[string]*models.Signal{}
	}

	snap := b.assemble(now, marketRes, financialSignals)
	b.store.SetSnapshot(snap)
	b.store.EndFetch("snapshot", nil)

	b.persistScores(ctx, now, snap, marketRes)

	b.logger.Info("snapshot rebuilt",
		logger.Any("global_score", snap.Global.Score),
		logger.String("risk", snap.Global.RiskLevel),
		logger.Int("contracts", marketRes.Contracts),
		logger.Int("alerts", len(snap.Alerts)))
	return nil
}

// TriggerRefreshIfStale starts a background rebuild when the served
// snapshot is older than maxAge. Non-blocking.
func (b *SnapshotBuilder) TriggerRefreshIfStale(maxAge time.Duration) bool {
	if b.store.Age(time.Now()) <= maxAge {
		return false
	}
	if b.rebuilding.Load() {
		return false
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := b.Rebuild(ctx); err != nil {
			b.logger.Error("demand-triggered rebuild failed", logger.Error(err))
		}
	}()
	return true
}

func (b *SnapshotBuilder) assemble(now time.Time, marketRes *MarketResult, financialSignals map[string]*models.Signal) *models.Snapshot {
	groundSignals := b.store.Signals(models.SignalGround)
	regions := make(map[string]models.Composite, 3)

	for _, region := range drepo.AllRegions() {
		scope := string(region)
		signals := map[string]*models.Signal{
			models.SignalMarket:    marketRes.Signals[scope],
			models.SignalFinancial: financialSignals[scope],
			models.SignalGround:    groundSignals[scope],
		}
		// Context layers ride along for display but never enter the blend.
		for _, name := range []string{models.SignalNarrative, models.SignalConnectivity} {
			if sig := b.store.Signal(name, scope); sig != nil {
				signals[name] = sig
			}
		}
		regions[scope] = scoring.RegionalComposite(scope, signals, b.weights)
		b.metrics.RecordComposite(scope, regions[scope].Score)
	}

	global, weighted := scoring.GlobalComposite(regions, marketRes.Signals[drepo.ScopeGlobal])
	if wide := b.store.Signal(models.SignalGroundWide, drepo.ScopeGlobal); wide != nil {
		global.Signals[models.SignalGroundWide] = wide
	}
	global.Convergence = scoring.Classify(globalConvergenceInput(weighted))
	b.metrics.RecordComposite(drepo.ScopeGlobal, global.Score)

	alerts := append([]models.Alert{}, marketRes.Alerts...)
	alerts = append(alerts, b.store.Alerts()...)

	return &models.Snapshot{
		Global:    global,
		Regions:   weighted,
		Alerts:    alerts,
		Forecasts: b.store.Forecasts(),
		BuiltAt:   now,
	}
}

// globalConvergenceInput feeds each scored signal's worst region into
// the global agreement check, so one hot region registers globally.
func globalConvergenceInput(regions map[string]models.Composite) map[string]*models.Signal {
	out := make(map[string]*models.Signal)
	for _, rc := range regions {
		for _, name := range []string{models.SignalMarket, models.SignalFinancial, models.SignalGround} {
			sig := rc.Signals[name]
			if sig.ScoreOrNil() == nil {
				continue
			}
			if cur, ok := out[name]; !ok || sig.Score > cur.Score {
				out[name] = sig
			}
		}
	}
	return out
}

// persistScores appends one score row per scope, throttled so the
// history table records trend, not refresh cadence.
func (b *SnapshotBuilder) persistScores(ctx context.Context, now time.Time, snap *models.Snapshot, marketRes *MarketResult) {
	last, err := b.history.LastScoreAt(ctx, drepo.ScopeGlobal)
	if err == nil && now.Sub(last) < b.persistInterval {
		return
	}

	rows := []models.ScoreRecord{scoreRecord(now, drepo.ScopeGlobal, snap.Global, marketRes)}
	for scope, rc := range snap.Regions {
		rows = append(rows, scoreRecord(now, scope, rc, nil))
	}
	if err := b.history.AppendScores(ctx, rows); err != nil {
		b.metrics.RecordError("persist_scores")
		b.logger.Warn("persisting score history failed", logger.Error(err))
	}
}

func scoreRecord(now time.Time, scope string, c models.Composite, marketRes *MarketResult) models.ScoreRecord {
	rec := models.ScoreRecord{
		At:           now,
		Scope:        scope,
		Composite:    c.Score,
		RiskLevel:    c.RiskLevel,
		Market:       c.Signals[models.SignalMarket].ScoreOrNil(),
		Financial:    c.Signals[models.SignalFinancial].ScoreOrNil(),
		Ground:       c.Signals[models.SignalGround].ScoreOrNil(),
		Narrative:    c.Signals[models.SignalNarrative].ScoreOrNil(),
		Connectivity: c.Signals[models.SignalConnectivity].ScoreOrNil(),
	}
	if marketRes != nil {
		rec.Contracts = marketRes.Contracts
		rec.Volume = marketRes.Volume
	}
	return rec
}
