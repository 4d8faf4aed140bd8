package usecase

import (
	"context"
	"fmt"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/scoring"
	"GeoPulse/pkg/logger"
)

// FinancialRefresher turns instrument quote histories into per-region
// signals. Each instrument is scored by how unusual today's percent
// move is against its own history; inverted instruments (safe havens,
// local currencies) are negated first so a sell-off reads as
// escalation.
type FinancialRefresher struct {
	source  drepo.FinancialSource
	rec     *ObservationRecorder
	logger  *logger.Logger
	metrics drepo.Metrics

	// Daily bars accumulate slowly, so instruments are trusted after a
	// month of history rather than the default observation count.
	maturityDays int
}

func NewFinancialRefresher(
	source drepo.FinancialSource,
	rec *ObservationRecorder,
	log *logger.Logger,
	metrics drepo.Metrics,
) *FinancialRefresher {
	return &FinancialRefresher{
		source:       source,
		rec:          rec,
		logger:       log,
		metrics:      metrics,
		maturityDays: 30,
	}
}

// Refresh runs one financial cycle and returns per-region signals.
func (f *FinancialRefresher) Refresh(ctx context.Context, now time.Time) (map[string]*models.Signal, error) {
	quotes, err := f.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}

	f.record(ctx, quotes, now)

	byRegion := make(map[string][]scoring.Item)
	for _, q := range quotes {
		item, ok := f.item(q)
		if !ok {
			continue
		}
		if q.Region == drepo.ScopeGlobal {
			// Globally-relevant instruments enter every region's blend.
			for _, region := range drepo.AllRegions() {
				byRegion[string(region)] = append(byRegion[string(region)], item)
			}
			continue
		}
		byRegion[q.Region] = append(byRegion[q.Region], item)
	}

	signals := make(map[string]*models.Signal)
	for _, region := range drepo.AllRegions() {
		sig := scoring.AggregateItems(models.SignalFinancial, string(region), byRegion[string(region)], now)
		signals[string(region)] = sig
		if !sig.Insufficient {
			f.metrics.RecordScore(string(region), models.SignalFinancial, sig.Score)
		}
	}
	return signals, nil
}

// item derives one instrument's scoring input from its move history.
func (f *FinancialRefresher) item(q models.InstrumentQuote) (scoring.Item, bool) {
	if len(q.Changes) < 2 {
		return scoring.Item{}, false
	}
	values := q.Changes
	if q.Inverted {
		values = make([]float64, len(q.Changes))
		for i, v := range q.Changes {
			values[i] = -v
		}
	}

	history := values[:len(values)-1]
	raw := scoring.Std(history)
	std := raw
	if std < 0.01 {
		std = 0.01
	}
	return scoring.Item{
		ID:    q.Ticker,
		Label: q.Name,
		Value: values[len(values)-1],
		Baseline: models.Baseline{
			ItemID: q.Ticker,
			Mean:   scoring.Mean(history),
			Std:    std,
			RawStd: raw,
			Count:  len(history),
			Mature: len(history) >= f.maturityDays,
		},
	}, true
}

// record appends the latest move of each instrument, best-effort.
func (f *FinancialRefresher) record(ctx context.Context, quotes []models.InstrumentQuote, now time.Time) {
	obs := make([]*models.Observation, 0, len(quotes))
	for _, q := range quotes {
		if len(q.Changes) == 0 {
			continue
		}
		obs = append(obs, &models.Observation{
			ItemID: q.Ticker,
			At:     now,
			Value:  q.Changes[len(q.Changes)-1],
			Region: q.Region,
			Source: models.SignalFinancial,
		})
	}
	if err := f.rec.ProcessBatch(ctx, obs); err != nil {
		f.logger.Warn("recording financial observations failed", logger.Error(err))
	}
}
