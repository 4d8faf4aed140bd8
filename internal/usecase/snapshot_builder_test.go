package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/store"
	"GeoPulse/pkg/cache"
)

func newBuilder(t *testing.T, msrc *fakeMarketSource, fsrc *fakeFinancialSource, h *fakeHistory, st *store.Store) *SnapshotBuilder {
	t.Helper()
	m := newFakeMetrics()
	log := testLogger(t)
	rec := NewObservationRecorder(nil, h, m, "clickhouse")
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	market := NewMarketRefresher(msrc, rec, h, mc, log, m)
	financial := NewFinancialRefresher(fsrc, rec, log, m)
	return NewSnapshotBuilder(market, financial, st, h, log, m)
}

func steadyChanges(n int, last float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i%5) - 2 // -2..2 percent moves
	}
	out[n-1] = last
	return out
}

func TestRebuildPublishesSnapshot(t *testing.T) {
	now := time.Now().UTC()
	h := &fakeHistory{}
	seedObservations(h, "c-eu", "europe", models.SignalMarket, 60, 0.50, now)

	msrc := &fakeMarketSource{contracts: []models.Contract{{
		ID: "c-eu", Question: "Border incident escalates?", RiskPrice: 0.52, Volume: 500, Region: "europe",
	}}}
	fsrc := &fakeFinancialSource{quotes: []models.InstrumentQuote{{
		Ticker: "DEF1", Name: "Defence Index", Region: "europe", Changes: steadyChanges(40, 0.5),
	}}}
	st := store.New()
	b := newBuilder(t, msrc, fsrc, h, st)

	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	snap, ok := st.Latest()
	if !ok {
		t.Fatal("expected a published snapshot")
	}
	if len(snap.Regions) != 3 {
		t.Fatalf("regions = %d, want 3", len(snap.Regions))
	}
	eu := snap.Regions["europe"]
	if eu.Signals[models.SignalMarket].Score != 78.6 {
		t.Fatalf("europe market score = %v, want 78.6", eu.Signals[models.SignalMarket].Score)
	}
	if eu.Score <= 50 {
		t.Fatalf("europe composite = %v, want above 50", eu.Score)
	}
	if snap.Global.Score <= 50 {
		t.Fatalf("global = %v, want pulled above 50 by europe", snap.Global.Score)
	}
	if snap.Global.RiskLevel == "" || snap.Global.Convergence.Label == "" {
		t.Fatal("global composite missing risk level or convergence")
	}
}

func TestRebuildKeepsSnapshotOnMarketFailure(t *testing.T) {
	st := store.New()
	previous := &models.Snapshot{BuiltAt: time.Now().Add(-time.Minute)}
	st.SetSnapshot(previous)

	b := newBuilder(t, &fakeMarketSource{err: errors.New("upstream down")},
		&fakeFinancialSource{}, &fakeHistory{}, st)

	if err := b.Rebuild(context.Background()); err == nil {
		t.Fatal("expected the market error back")
	}
	if snap, _ := st.Latest(); snap != previous {
		t.Fatal("a failed rebuild must keep serving the previous snapshot")
	}
	status := st.Status()
	if len(status) != 1 || status[0].LastError == "" {
		t.Fatalf("status = %+v, want the recorded failure", status)
	}
}

func TestRebuildDegradesOnFinancialFailure(t *testing.T) {
	st := store.New()
	b := newBuilder(t, &fakeMarketSource{},
		&fakeFinancialSource{err: errors.New("quota")}, &fakeHistory{}, st)

	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("financial failure must not fail the rebuild: %v", err)
	}
	snap, ok := st.Latest()
	if !ok {
		t.Fatal("expected a snapshot despite the degraded source")
	}
	// Nothing has data: every composite reads neutral.
	if snap.Global.Score != 50.0 {
		t.Fatalf("global = %v, want 50", snap.Global.Score)
	}
}

func TestRebuildIncludesSlotLayers(t *testing.T) {
	now := time.Now().UTC()
	st := store.New()
	st.SetSignals(models.SignalGround, map[string]*models.Signal{
		"europe": {Name: models.SignalGround, Scope: "europe", Score: 70.0, UpdatedAt: now},
	})
	st.SetSignals(models.SignalNarrative, map[string]*models.Signal{
		"europe": {Name: models.SignalNarrative, Scope: "europe", Score: 64.0, UpdatedAt: now},
	})
	st.SetAlerts("panic", []models.Alert{{Type: "panic", Region: "europe", Text: "x", RiskRising: true}})
	st.SetForecasts(map[string]models.ForecastSummary{
		"global": {Scope: "global", Period: "2026-08", TotalEvents: 1200},
	})

	b := newBuilder(t, &fakeMarketSource{}, &fakeFinancialSource{}, &fakeHistory{}, st)
	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	snap, _ := st.Latest()
	eu := snap.Regions["europe"]
	// Ground is the only scored signal with data: composite follows it.
	if eu.Score != 70.0 {
		t.Fatalf("europe composite = %v, want 70 from the ground slot", eu.Score)
	}
	if eu.Signals[models.SignalNarrative] == nil {
		t.Fatal("context layer missing from the composite")
	}
	if len(snap.Alerts) != 1 || snap.Alerts[0].Type != "panic" {
		t.Fatalf("alerts = %+v, want the panic slot entry", snap.Alerts)
	}
	if snap.Forecasts["global"].TotalEvents != 1200 {
		t.Fatal("forecast slot missing from the snapshot")
	}
}

func TestRebuildPersistsScoreHistory(t *testing.T) {
	h := &fakeHistory{}
	st := store.New()
	b := newBuilder(t, &fakeMarketSource{}, &fakeFinancialSource{}, h, st)

	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	rows, _ := h.QueryScores(context.Background(), drepo.ScopeGlobal, time.Time{})
	if len(rows) != 1 {
		t.Fatalf("global rows = %d, want 1", len(rows))
	}
	if rows[0].Composite != 50.0 || rows[0].RiskLevel != "NORMAL" {
		t.Fatalf("row = %+v, want neutral", rows[0])
	}

	// A rebuild right after must not add another row.
	if err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	rows, _ = h.QueryScores(context.Background(), drepo.ScopeGlobal, time.Time{})
	if len(rows) != 1 {
		t.Fatalf("global rows = %d, want still 1 inside the persist window", len(rows))
	}
}

func TestTriggerRefreshIfStale(t *testing.T) {
	st := store.New()
	st.SetSnapshot(&models.Snapshot{BuiltAt: time.Now()})
	b := newBuilder(t, &fakeMarketSource{}, &fakeFinancialSource{}, &fakeHistory{}, st)

	if b.TriggerRefreshIfStale(time.Minute) {
		t.Fatal("fresh snapshot must not trigger")
	}

	st.SetSnapshot(&models.Snapshot{BuiltAt: time.Now().Add(-time.Hour)})
	if !b.TriggerRefreshIfStale(time.Minute) {
		t.Fatal("stale snapshot must trigger")
	}

	// Wait for the background rebuild to land.
	deadline := time.After(2 * time.Second)
	for {
		if snap, ok := st.Latest(); ok && time.Since(snap.BuiltAt) < time.Minute {
			break
		}
		select {
		case <-deadline:
			t.Fatal("background rebuild did not publish")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
