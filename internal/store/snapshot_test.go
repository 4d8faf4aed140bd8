package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
)

func TestLatestBeforeFirstBuild(t *testing.T) {
	s := New()
	if _, ok := s.Latest(); ok {
		t.Fatal("expected ok=false before the first snapshot")
	}
	if age := s.Age(time.Now()); age < 100*365*24*time.Hour {
		t.Fatalf("missing snapshot age = %v, want effectively infinite", age)
	}
}

func TestSnapshotSwap(t *testing.T) {
	s := New()
	first := &models.Snapshot{BuiltAt: time.Now().Add(-time.Minute)}
	s.SetSnapshot(first)

	snap, ok := s.Latest()
	if !ok || snap != first {
		t.Fatal("expected the published snapshot back")
	}

	second := &models.Snapshot{BuiltAt: time.Now()}
	s.SetSnapshot(second)
	if snap, _ = s.Latest(); snap != second {
		t.Fatal("expected the replacement snapshot")
	}
	if s.Age(time.Now()) > time.Minute {
		t.Fatal("age should track the newest snapshot")
	}
}

func TestSignalSlots(t *testing.T) {
	s := New()
	if s.Signal(models.SignalGround, "europe") != nil {
		t.Fatal("expected nil before the owning task runs")
	}

	s.SetSignals(models.SignalGround, map[string]*models.Signal{
		"europe": {Name: models.SignalGround, Scope: "europe", Score: 61.2},
	})
	sig := s.Signal(models.SignalGround, "europe")
	if sig == nil || sig.Score != 61.2 {
		t.Fatalf("got %+v, want the stored europe signal", sig)
	}
	if s.Signal(models.SignalGround, "asia_pacific") != nil {
		t.Fatal("expected nil for a scope the slot does not carry")
	}
}

func TestAlertsMergeStable(t *testing.T) {
	s := New()
	s.SetAlerts("panic", []models.Alert{{Type: "panic", Text: "b"}})
	s.SetAlerts("contract", []models.Alert{{Type: "contract", Text: "a"}})

	got := s.Alerts()
	if len(got) != 2 {
		t.Fatalf("alerts = %d, want 2", len(got))
	}
	// Source names sort, so contract entries come first.
	if got[0].Type != "contract" || got[1].Type != "panic" {
		t.Fatalf("order = %s,%s, want contract,panic", got[0].Type, got[1].Type)
	}

	s.SetAlerts("panic", nil)
	if got = s.Alerts(); len(got) != 1 {
		t.Fatalf("alerts after clearing panic = %d, want 1", len(got))
	}
}

func TestSourceStatus(t *testing.T) {
	s := New()
	s.BeginFetch("trends")

	st := s.Status()
	if len(st) != 1 || !st[0].Fetching {
		t.Fatalf("status = %+v, want one fetching entry", st)
	}

	s.EndFetch("trends", errors.New("quota exceeded"))
	st = s.Status()
	if st[0].Fetching || st[0].LastError != "quota exceeded" {
		t.Fatalf("status = %+v, want stored error", st[0])
	}
	if !st[0].LastUpdated.IsZero() {
		t.Fatal("a failed cycle must not advance LastUpdated")
	}

	s.BeginFetch("trends")
	s.EndFetch("trends", nil)
	st = s.Status()
	if st[0].LastError != "" || st[0].LastUpdated.IsZero() {
		t.Fatalf("status = %+v, want cleared error and fresh timestamp", st[0])
	}
}

func TestStatusSorted(t *testing.T) {
	s := New()
	for _, name := range []string{"radar", "contracts", "newstone"} {
		s.BeginFetch(name)
		s.EndFetch(name, nil)
	}
	st := s.Status()
	if st[0].Name != "contracts" || st[1].Name != "newstone" || st[2].Name != "radar" {
		t.Fatalf("order = %s,%s,%s, want sorted", st[0].Name, st[1].Name, st[2].Name)
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.SetSnapshot(&models.Snapshot{BuiltAt: time.Now()})
				s.SetSignals(models.SignalNarrative, map[string]*models.Signal{
					"europe": {Name: models.SignalNarrative, Scope: "europe"},
				})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Latest()
				s.Signal(models.SignalNarrative, "europe")
				s.Status()
			}
		}()
	}
	wg.Wait()
}
