package usecase

import (
	"context"
	"fmt"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/scoring"
	"GeoPulse/internal/store"
	"GeoPulse/pkg/logger"
)

// GroundRefresher scores public search interest. Two layers feed each
// region: a set of region-wide conflict terms queried globally, and
// in-country panic terms (evacuation, shelter, bank run phrases) that
// carry most of the weight because they move only when people on the
// ground react.
type GroundRefresher struct {
	source  drepo.GroundSignalSource
	store   *store.Store
	logger  *logger.Logger
	metrics drepo.Metrics

	wideTerms  []models.TrendTerm
	panicTerms map[string][]models.TrendTerm // region -> in-country terms

	wideWeight  float64
	panicWeight float64
	recentDays  int
	alertZ      float64

	lastAccepted int // series count of the last accepted fetch
}

func NewGroundRefresher(
	source drepo.GroundSignalSource,
	st *store.Store,
	log *logger.Logger,
	metrics drepo.Metrics,
	wideTerms []models.TrendTerm,
	panicTerms map[string][]models.TrendTerm,
) *GroundRefresher {
	return &GroundRefresher{
		source:      source,
		store:       st,
		logger:      log,
		metrics:     metrics,
		wideTerms:   wideTerms,
		panicTerms:  panicTerms,
		wideWeight:  0.3,
		panicWeight: 0.7,
		recentDays:  7,
		alertZ:      1.5,
	}
}

// Refresh runs one search-interest cycle and updates the store slots.
func (g *GroundRefresher) Refresh(ctx context.Context) error {
	now := time.Now().UTC()
	terms := make([]models.TrendTerm, 0, len(g.wideTerms))
	terms = append(terms, g.wideTerms...)
	for _, regionTerms := range g.panicTerms {
		terms = append(terms, regionTerms...)
	}

	series, err := g.source.FetchInterest(ctx, terms)
	if err != nil {
		return fmt.Errorf("fetch interest: %w", err)
	}

	// A fetch that returns far fewer series than the last good one is a
	// quota or upstream failure in disguise. Keep the stale slot. The
	// doubled comparison keeps the half threshold exact on odd counts.
	if g.lastAccepted > 0 && len(series)*2 < g.lastAccepted {
		g.metrics.RecordError("low_quality_fetch")
		g.logger.Warn("interest fetch rejected",
			logger.Int("series", len(series)),
			logger.Int("last_accepted", g.lastAccepted))
		return nil
	}
	g.lastAccepted = len(series)

	byTerm := make(map[string]models.TermSeries, len(series))
	for _, ts := range series {
		byTerm[termKey(ts.Term)] = ts
	}

	wideZ, wideOK := g.layerZ(g.wideTerms, byTerm)

	groundSignals := make(map[string]*models.Signal)
	var alerts []models.Alert
	for _, region := range drepo.AllRegions() {
		scope := string(region)
		panicZ, panicOK := g.layerZ(g.panicTerms[scope], byTerm)
		if !panicOK {
			groundSignals[scope] = scoring.InsufficientSignal(models.SignalGround, scope, now)
			continue
		}

		z := g.panicWeight * panicZ
		if wideOK {
			z += g.wideWeight * wideZ
		} else {
			z /= g.panicWeight // panic layer carries the full blend
		}
		sig := scoring.SignalFromZ(models.SignalGround, scope, z, g.matureCount(g.panicTerms[scope], byTerm), now)
		groundSignals[scope] = sig
		g.metrics.RecordScore(scope, models.SignalGround, sig.Score)

		alerts = append(alerts, g.panicAlerts(scope, g.panicTerms[scope], byTerm)...)
	}

	g.store.SetSignals(models.SignalGround, groundSignals)
	if wideOK {
		g.store.SetSignals(models.SignalGroundWide, map[string]*models.Signal{
			drepo.ScopeGlobal: scoring.SignalFromZ(models.SignalGroundWide, drepo.ScopeGlobal,
				wideZ, g.matureCount(g.wideTerms, byTerm), now),
		})
	}
	g.store.SetAlerts("panic", alerts)
	return nil
}

// layerZ averages the week-over-baseline shift of one term layer.
// A layer needs at least two readable terms to count.
func (g *GroundRefresher) layerZ(terms []models.TrendTerm, byTerm map[string]models.TermSeries) (float64, bool) {
	var zs []float64
	for _, t := range terms {
		ts, ok := byTerm[termKey(t)]
		if !ok {
			continue
		}
		if z, ok := scoring.WindowShiftZ(ts.Values, g.recentDays); ok {
			zs = append(zs, z)
		}
	}
	if len(zs) < 2 {
		return 0, false
	}
	return scoring.Mean(zs), true
}

func (g *GroundRefresher) matureCount(terms []models.TrendTerm, byTerm map[string]models.TermSeries) int {
	n := 0
	for _, t := range terms {
		if ts, ok := byTerm[termKey(t)]; ok {
			if _, ok := scoring.WindowShiftZ(ts.Values, g.recentDays); ok {
				n++
			}
		}
	}
	return n
}

// panicAlerts flags individual in-country terms spiking hard.
func (g *GroundRefresher) panicAlerts(scope string, terms []models.TrendTerm, byTerm map[string]models.TermSeries) []models.Alert {
	var out []models.Alert
	for _, t := range terms {
		ts, ok := byTerm[termKey(t)]
		if !ok {
			continue
		}
		z, ok := scoring.WindowShiftZ(ts.Values, g.recentDays)
		if !ok || z <= g.alertZ {
			continue
		}
		out = append(out, models.Alert{
			Type:   "panic",
			Region: scope,
			Text: fmt.Sprintf("search interest for %q in %s is %.1f sigma above baseline",
				t.Label, t.Geo, z),
			RiskRising: true,
		})
	}
	return out
}

func termKey(t models.TrendTerm) string {
	return t.Geo + "|" + t.Term
}
