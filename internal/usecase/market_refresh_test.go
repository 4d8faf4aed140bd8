package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
	"GeoPulse/pkg/cache"
)

func newMarketRefresher(t *testing.T, src *fakeMarketSource, h *fakeHistory) (*MarketRefresher, *fakeMetrics) {
	t.Helper()
	m := newFakeMetrics()
	rec := NewObservationRecorder(nil, h, m, "clickhouse")
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	return NewMarketRefresher(src, rec, h, mc, testLogger(t), m), m
}

func TestMarketRefreshScoresRegions(t *testing.T) {
	now := time.Now().UTC()
	h := &fakeHistory{}
	// 60 hourly readings at 0.50; std floors to 0.01, so 0.52 is z=2.
	seedObservations(h, "c-eu", "europe", models.SignalMarket, 60, 0.50, now)

	src := &fakeMarketSource{contracts: []models.Contract{{
		ID: "c-eu", Question: "Conflict escalates?", RiskPrice: 0.52, Volume: 1000, Region: "europe",
	}}}
	mr, _ := newMarketRefresher(t, src, h)

	res, err := mr.Refresh(context.Background(), now)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	eu := res.Signals["europe"]
	if eu.Insufficient {
		t.Fatal("europe should be data-backed")
	}
	if eu.Score != 78.6 {
		t.Fatalf("europe score = %v, want 78.6", eu.Score)
	}
	if g := res.Signals["global"]; g.Score != 78.6 {
		t.Fatalf("global score = %v, want 78.6", g.Score)
	}
	if !res.Signals["asia_pacific"].Insufficient {
		t.Fatal("region with no contracts must read insufficient")
	}
	if res.Contracts != 1 || res.Volume != 1000 {
		t.Fatalf("stats = %d/%v, want 1/1000", res.Contracts, res.Volume)
	}
}

func TestMarketRefreshImmatureContracts(t *testing.T) {
	now := time.Now().UTC()
	h := &fakeHistory{}
	seedObservations(h, "c-new", "europe", models.SignalMarket, 5, 0.30, now)

	src := &fakeMarketSource{contracts: []models.Contract{{
		ID: "c-new", RiskPrice: 0.90, Volume: 50, Region: "europe",
	}}}
	mr, _ := newMarketRefresher(t, src, h)

	res, err := mr.Refresh(context.Background(), now)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	eu := res.Signals["europe"]
	if !eu.Insufficient || eu.Score != 50.0 {
		t.Fatalf("signal = %+v, want neutral insufficient", eu)
	}
	if eu.ImmatureItems != 1 {
		t.Fatalf("immature = %d, want 1", eu.ImmatureItems)
	}
}

func TestMarketRefreshRecordsObservations(t *testing.T) {
	now := time.Now().UTC()
	h := &fakeHistory{}
	src := &fakeMarketSource{contracts: []models.Contract{{
		ID: "c1", RiskPrice: 0.4, Volume: 10, Region: "middle_east",
	}}}
	mr, _ := newMarketRefresher(t, src, h)

	if _, err := mr.Refresh(context.Background(), now); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	obs, _ := h.QueryItemObservations(context.Background(), "c1", now.Add(-time.Minute))
	if len(obs) != 1 || obs[0].Value != 0.4 {
		t.Fatalf("recorded %+v, want one 0.4 reading", obs)
	}
}

func TestMarketRefreshFetchError(t *testing.T) {
	mr, _ := newMarketRefresher(t, &fakeMarketSource{err: errors.New("upstream 503")}, &fakeHistory{})
	if _, err := mr.Refresh(context.Background(), time.Now()); err == nil {
		t.Fatal("expected the fetch error back")
	}
}

func TestMarketMoverAlertDedup(t *testing.T) {
	now := time.Now().UTC()
	h := &fakeHistory{}
	seedObservations(h, "c-mv", "europe", models.SignalMarket, 60, 0.50, now)

	src := &fakeMarketSource{contracts: []models.Contract{{
		ID: "c-mv", Question: "Strait closed by year end?", RiskPrice: 0.60, Volume: 100, Region: "europe",
	}}}
	mr, _ := newMarketRefresher(t, src, h)

	res, err := mr.Refresh(context.Background(), now)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(res.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1 (10pp move)", len(res.Alerts))
	}
	if !res.Alerts[0].RiskRising {
		t.Fatal("upward move must flag RiskRising")
	}

	// Same price next cycle: already alerted at 0.60, stay quiet.
	res, err = mr.Refresh(context.Background(), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(res.Alerts) != 0 {
		t.Fatalf("alerts = %d, want 0 after dedup", len(res.Alerts))
	}
}

func TestMarketHistoryOutageDegrades(t *testing.T) {
	now := time.Now().UTC()
	h := &fakeHistory{queryErr: errors.New("clickhouse down")}
	src := &fakeMarketSource{contracts: []models.Contract{{
		ID: "c1", RiskPrice: 0.5, Volume: 10, Region: "europe",
	}}}
	mr, m := newMarketRefresher(t, src, h)

	res, err := mr.Refresh(context.Background(), now)
	if err != nil {
		t.Fatalf("a history outage must not fail the cycle: %v", err)
	}
	if !res.Signals["europe"].Insufficient {
		t.Fatal("no baselines available, signal must be insufficient")
	}
	if m.errorCount("history_query") == 0 {
		t.Fatal("expected a history_query error metric")
	}
}
