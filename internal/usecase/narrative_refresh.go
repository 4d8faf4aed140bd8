package usecase

import (
	"context"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/scoring"
	"GeoPulse/internal/store"
	"GeoPulse/pkg/logger"
)

// NarrativeRefresher scores conflict-news tone per region: how negative
// the last three days read against the trailing month, weighted by
// article volume so thin days do not dominate. Context layer only; it
// never enters composite blending.
type NarrativeRefresher struct {
	source  drepo.NarrativeSource
	store   *store.Store
	logger  *logger.Logger
	metrics drepo.Metrics

	recentWindow time.Duration
	minDays      int
}

func NewNarrativeRefresher(
	source drepo.NarrativeSource,
	st *store.Store,
	log *logger.Logger,
	metrics drepo.Metrics,
) *NarrativeRefresher {
	return &NarrativeRefresher{
		source:       source,
		store:        st,
		logger:       log,
		metrics:      metrics,
		recentWindow: 72 * time.Hour,
		minDays:      12,
	}
}

// Refresh runs one tone cycle across all regions. A region whose fetch
// fails keeps its previous slot value.
func (n *NarrativeRefresher) Refresh(ctx context.Context) error {
	now := time.Now().UTC()
	signals := n.store.Signals(models.SignalNarrative)
	if signals == nil {
		signals = make(map[string]*models.Signal)
	}
	updated := make(map[string]*models.Signal, len(signals))
	for k, v := range signals {
		updated[k] = v
	}

	var lastErr error
	for _, region := range drepo.AllRegions() {
		days, err := n.source.FetchTone(ctx, region)
		if err != nil {
			n.metrics.RecordError("narrative_fetch")
			n.logger.Warn("tone fetch failed",
				logger.String("region", string(region)), logger.Error(err))
			lastErr = err
			continue
		}
		updated[string(region)] = n.score(string(region), days, now)
	}

	n.store.SetSignals(models.SignalNarrative, updated)
	if len(updated) == 0 {
		return lastErr
	}
	return nil
}

// score derives the tone signal for one region. Negative tone means
// darker coverage, so the z is inverted: darkening coverage pushes the
// score up.
func (n *NarrativeRefresher) score(scope string, days []models.ToneDay, now time.Time) *models.Signal {
	if len(days) == 0 {
		return scoring.InsufficientSignal(models.SignalNarrative, scope, now)
	}

	cutoff := now.Add(-n.recentWindow)
	var recentSum, recentArticles float64
	var tones []float64
	for _, d := range days {
		tones = append(tones, d.Tone)
		if d.Day.After(cutoff) {
			recentSum += d.Tone * float64(d.Articles)
			recentArticles += float64(d.Articles)
		}
	}
	if recentArticles == 0 {
		return scoring.InsufficientSignal(models.SignalNarrative, scope, now)
	}

	std := scoring.Std(tones)
	if std < 0.01 {
		std = 0.01
	}
	recentTone := recentSum / recentArticles
	z := -(recentTone - scoring.Mean(tones)) / std

	sig := scoring.SignalFromZ(models.SignalNarrative, scope, z, len(days), now)
	// A thin month of coverage damps the score toward neutral.
	if len(days) < n.minDays {
		sig.Score = 50 + (sig.Score-50)*float64(len(days))/float64(n.minDays)
	}
	n.metrics.RecordScore(scope, models.SignalNarrative, sig.Score)
	return sig
}
