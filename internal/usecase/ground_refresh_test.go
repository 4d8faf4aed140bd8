package usecase

import (
	"context"
	"errors"
	"testing"

	"GeoPulse/internal/domain/models"
	"GeoPulse/internal/store"
)

func flatSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func spikedSeries(n, recent int, base, spike float64) []float64 {
	out := flatSeries(n, base)
	// Mild noise in the head so the baseline std is nonzero.
	for i := 0; i < n-recent; i += 2 {
		out[i] = base + 2
	}
	for i := n - recent; i < n; i++ {
		out[i] = spike
	}
	return out
}

func groundTerms() ([]models.TrendTerm, map[string][]models.TrendTerm) {
	wide := []models.TrendTerm{
		{Term: "war", Label: "war"},
		{Term: "mobilization", Label: "mobilization"},
	}
	panic := map[string][]models.TrendTerm{
		"europe": {
			{Term: "evacuation", Geo: "PL", Label: "evacuation"},
			{Term: "air raid shelter", Geo: "PL", Label: "air raid shelter"},
		},
		"middle_east": {
			{Term: "bomb shelter", Geo: "IL", Label: "bomb shelter"},
			{Term: "evacuation", Geo: "IL", Label: "evacuation"},
		},
		"asia_pacific": {
			{Term: "evacuation", Geo: "TW", Label: "evacuation"},
			{Term: "air raid drill", Geo: "TW", Label: "air raid drill"},
		},
	}
	return wide, panic
}

func seriesFor(terms []models.TrendTerm, values []float64) []models.TermSeries {
	out := make([]models.TermSeries, len(terms))
	for i, t := range terms {
		out[i] = models.TermSeries{Term: t, Values: values}
	}
	return out
}

func allTerms(wide []models.TrendTerm, panic map[string][]models.TrendTerm) []models.TrendTerm {
	out := append([]models.TrendTerm{}, wide...)
	for _, ts := range panic {
		out = append(out, ts...)
	}
	return out
}

func TestGroundRefreshQuietBaseline(t *testing.T) {
	wide, panicTerms := groundTerms()
	src := &fakeGroundSource{series: seriesFor(allTerms(wide, panicTerms), flatSeries(30, 50))}
	st := store.New()
	g := NewGroundRefresher(src, st, testLogger(t), newFakeMetrics(), wide, panicTerms)

	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	sig := st.Signal(models.SignalGround, "europe")
	if sig == nil || sig.Insufficient {
		t.Fatalf("signal = %+v, want data-backed", sig)
	}
	if sig.Score != 50.0 {
		t.Fatalf("flat interest score = %v, want 50", sig.Score)
	}
	if wideSig := st.Signal(models.SignalGroundWide, "global"); wideSig == nil {
		t.Fatal("expected the region-wide layer slot")
	}
}

func TestGroundRefreshSpikeRaisesScoreAndAlerts(t *testing.T) {
	wide, panicTerms := groundTerms()
	var series []models.TermSeries
	series = append(series, seriesFor(wide, flatSeries(30, 50))...)
	for scope, terms := range panicTerms {
		values := flatSeries(30, 50)
		if scope == "middle_east" {
			values = spikedSeries(30, 7, 50, 95)
		}
		series = append(series, seriesFor(terms, values)...)
	}
	src := &fakeGroundSource{series: series}
	st := store.New()
	g := NewGroundRefresher(src, st, testLogger(t), newFakeMetrics(), wide, panicTerms)

	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	me := st.Signal(models.SignalGround, "middle_east")
	if me.Score <= 50 {
		t.Fatalf("middle_east score = %v, want above 50", me.Score)
	}
	if eu := st.Signal(models.SignalGround, "europe"); eu.Score != 50.0 {
		t.Fatalf("europe score = %v, want neutral", eu.Score)
	}

	alerts := st.Alerts()
	if len(alerts) == 0 {
		t.Fatal("expected panic-term alerts for the spiking region")
	}
	for _, a := range alerts {
		if a.Type != "panic" || a.Region != "middle_east" || !a.RiskRising {
			t.Fatalf("unexpected alert %+v", a)
		}
	}
}

func TestGroundRefreshRejectsThinFetch(t *testing.T) {
	wide, panicTerms := groundTerms()
	full := seriesFor(allTerms(wide, panicTerms), flatSeries(30, 50))
	src := &fakeGroundSource{series: full}
	st := store.New()
	m := newFakeMetrics()
	g := NewGroundRefresher(src, st, testLogger(t), m, wide, panicTerms)

	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	before := st.Signal(models.SignalGround, "europe")

	// Upstream quota trips: only one series comes back.
	src.series = full[:1]
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	if m.errorCount("low_quality_fetch") != 1 {
		t.Fatal("expected a low_quality_fetch error metric")
	}
	after := st.Signal(models.SignalGround, "europe")
	if after != before {
		t.Fatal("a rejected fetch must keep the previous slot")
	}
}

func TestGroundRefreshHalfThresholdOnOddCounts(t *testing.T) {
	wide, panicTerms := groundTerms()
	full := seriesFor(allTerms(wide, panicTerms), flatSeries(30, 50))
	src := &fakeGroundSource{series: full[:5]}
	st := store.New()
	m := newFakeMetrics()
	g := NewGroundRefresher(src, st, testLogger(t), m, wide, panicTerms)

	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// 2 of a previous 5 is under half and must be rejected; integer
	// halving would wave it through.
	src.series = full[:2]
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if m.errorCount("low_quality_fetch") != 1 {
		t.Fatalf("low_quality_fetch = %d, want the thin fetch rejected", m.errorCount("low_quality_fetch"))
	}

	// 3 of 5 clears the bar and replaces the accepted count.
	src.series = full[:3]
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("third refresh: %v", err)
	}
	if m.errorCount("low_quality_fetch") != 1 {
		t.Fatal("a fetch at or above half must be accepted")
	}
}

func TestGroundRefreshFetchError(t *testing.T) {
	wide, panicTerms := groundTerms()
	src := &fakeGroundSource{err: errors.New("quota exceeded")}
	g := NewGroundRefresher(src, store.New(), testLogger(t), newFakeMetrics(), wide, panicTerms)
	if err := g.Refresh(context.Background()); err == nil {
		t.Fatal("expected the fetch error back")
	}
}

func TestGroundRefreshTooFewTermsIsInsufficient(t *testing.T) {
	wide, panicTerms := groundTerms()
	// Only one panic term per region readable: below the two-term floor.
	var series []models.TermSeries
	series = append(series, seriesFor(wide, flatSeries(30, 50))...)
	for _, terms := range panicTerms {
		series = append(series, seriesFor(terms[:1], flatSeries(30, 50))...)
	}
	src := &fakeGroundSource{series: series}
	st := store.New()
	g := NewGroundRefresher(src, st, testLogger(t), newFakeMetrics(), wide, panicTerms)

	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sig := st.Signal(models.SignalGround, "europe"); !sig.Insufficient {
		t.Fatalf("signal = %+v, want insufficient below two terms", sig)
	}
}
