package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
	"GeoPulse/internal/store"
	xlogger "GeoPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type fakeRefresher struct {
	mu        sync.Mutex
	triggered int
	rebuilt   int
}

func (f *fakeRefresher) TriggerRefreshIfStale(time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered++
	return false
}

func (f *fakeRefresher) Rebuild(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilt++
	return nil
}

type fakeScoreHistory struct {
	rows      []models.ScoreRecord
	obs       []models.Observation
	itemSince time.Time
}

func (h *fakeScoreHistory) AppendObservation(context.Context, *models.Observation) error { return nil }
func (h *fakeScoreHistory) AppendObservations(context.Context, []*models.Observation) error {
	return nil
}
func (h *fakeScoreHistory) QueryObservations(context.Context, string, time.Time) ([]models.Observation, error) {
	return nil, nil
}
func (h *fakeScoreHistory) QueryItemObservations(_ context.Context, _ string, since time.Time) ([]models.Observation, error) {
	h.itemSince = since
	return h.obs, nil
}
func (h *fakeScoreHistory) AppendScores(context.Context, []models.ScoreRecord) error { return nil }
func (h *fakeScoreHistory) LastScoreAt(context.Context, string) (time.Time, error) {
	return time.Time{}, nil
}
func (h *fakeScoreHistory) QueryScores(context.Context, string, time.Time) ([]models.ScoreRecord, error) {
	return h.rows, nil
}
func (h *fakeScoreHistory) Health(context.Context) error { return nil }
func (h *fakeScoreHistory) Close() error                 { return nil }

func newTestHandler(t *testing.T, st *store.Store, history *fakeScoreHistory) (*echo.Echo, *fakeRefresher) {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	refresher := &fakeRefresher{}
	e := echo.New()
	NewScoresEchoHandler(log, st, refresher, history).RegisterRoutes(e)
	return e, refresher
}

func doRequest(e *echo.Echo, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestScoresWarmingUp(t *testing.T) {
	e, refresher := newTestHandler(t, store.New(), &fakeScoreHistory{})

	rec, _ := doRequest(e, http.MethodGet, "/api/scores")
	if !strings.Contains(rec.Body.String(), "ERR_WARMING_UP") {
		t.Fatalf("body = %s, want warming-up error before the first snapshot", rec.Body.String())
	}
	if refresher.triggered != 1 {
		t.Fatalf("triggered = %d, want the staleness check to run", refresher.triggered)
	}
}

func TestScoresServesSnapshot(t *testing.T) {
	st := store.New()
	st.SetSnapshot(&models.Snapshot{
		Global:  models.Composite{Scope: "global", Score: 61.5, RiskLevel: "ELEVATED"},
		Regions: map[string]models.Composite{"europe": {Scope: "europe", Score: 70.0}},
		BuiltAt: time.Now(),
	})
	e, _ := newTestHandler(t, st, &fakeScoreHistory{})

	_, body := doRequest(e, http.MethodGet, "/api/scores")
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("body = %v, want a data envelope", body)
	}
	global := data["global"].(map[string]interface{})
	if global["score"] != 61.5 {
		t.Fatalf("global score = %v, want 61.5", global["score"])
	}
}

func TestRegionScoresUnknownRegion(t *testing.T) {
	e, _ := newTestHandler(t, store.New(), &fakeScoreHistory{})
	rec, _ := doRequest(e, http.MethodGet, "/api/scores/atlantis")
	if !strings.Contains(rec.Body.String(), "unknown region") {
		t.Fatalf("body = %s, want an unknown region error", rec.Body.String())
	}
}

func TestRegionScoresGlobalScope(t *testing.T) {
	st := store.New()
	st.SetSnapshot(&models.Snapshot{
		Global:  models.Composite{Scope: "global", Score: 50.0},
		BuiltAt: time.Now(),
	})
	e, _ := newTestHandler(t, st, &fakeScoreHistory{})

	_, body := doRequest(e, http.MethodGet, "/api/scores/global")
	data := body["data"].(map[string]interface{})
	if data["scope"] != "global" {
		t.Fatalf("data = %v, want the global composite", data)
	}
}

func TestHistoryRejectsUnknownScope(t *testing.T) {
	e, _ := newTestHandler(t, store.New(), &fakeScoreHistory{})
	rec, _ := doRequest(e, http.MethodGet, "/api/history?scope=mars")
	if !strings.Contains(rec.Body.String(), "unknown scope") {
		t.Fatalf("body = %s, want an unknown scope error", rec.Body.String())
	}
}

func TestHistoryReturnsRows(t *testing.T) {
	history := &fakeScoreHistory{rows: []models.ScoreRecord{
		{Scope: "global", Composite: 55.0, RiskLevel: "NORMAL"},
	}}
	e, _ := newTestHandler(t, store.New(), history)

	_, body := doRequest(e, http.MethodGet, "/api/history?scope=global&days=7")
	data := body["data"].(map[string]interface{})
	if data["total"] != 1.0 {
		t.Fatalf("total = %v, want 1", data["total"])
	}
}

func TestItemHistoryExplicitFrom(t *testing.T) {
	history := &fakeScoreHistory{obs: []models.Observation{{ItemID: "c1", Value: 0.4}}}
	e, _ := newTestHandler(t, store.New(), history)

	_, body := doRequest(e, http.MethodGet, "/api/history/item?item=c1&from=2026-08-01T00:00:30Z")
	data := body["data"].(map[string]interface{})
	if data["total"] != 1.0 {
		t.Fatalf("total = %v, want 1", data["total"])
	}
	want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !history.itemSince.Equal(want) {
		t.Fatalf("since = %v, want the from param aligned to %v", history.itemSince, want)
	}
}

func TestRefreshForcesRebuild(t *testing.T) {
	st := store.New()
	st.SetSnapshot(&models.Snapshot{BuiltAt: time.Now()})
	e, refresher := newTestHandler(t, st, &fakeScoreHistory{})

	doRequest(e, http.MethodPost, "/api/refresh")
	if refresher.rebuilt != 1 {
		t.Fatalf("rebuilt = %d, want a forced rebuild", refresher.rebuilt)
	}
}
