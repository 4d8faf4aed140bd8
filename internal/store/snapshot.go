package store

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"GeoPulse/internal/domain/models"
)

// Store holds the latest computed snapshot plus the per-source slots the
// builder reads when assembling the next one. The snapshot itself is an
// atomic pointer swap so readers never block on a rebuild; the slower
// slots sit behind a single RWMutex.
type Store struct {
	snapshot atomic.Pointer[models.Snapshot]

	mu        sync.RWMutex
	signals   map[string]map[string]*models.Signal // signal name -> scope
	forecasts map[string]models.ForecastSummary
	alerts    map[string][]models.Alert // producing source -> entries
	statuses  map[string]*models.SourceStatus
}

// New returns an empty store. Latest reports ok=false until the first
// SetSnapshot.
func New() *Store {
	return &Store{
		signals:   make(map[string]map[string]*models.Signal),
		forecasts: make(map[string]models.ForecastSummary),
		alerts:    make(map[string][]models.Alert),
		statuses:  make(map[string]*models.SourceStatus),
	}
}

// Latest returns the current snapshot without blocking.
func (s *Store) Latest() (*models.Snapshot, bool) {
	snap := s.snapshot.Load()
	return snap, snap != nil
}

// SetSnapshot publishes a fully-built snapshot.
func (s *Store) SetSnapshot(snap *models.Snapshot) {
	s.snapshot.Store(snap)
}

// Age reports the current snapshot's age; a missing snapshot reads as
// infinitely old so staleness checks always fire before the first build.
func (s *Store) Age(now time.Time) time.Duration {
	return s.snapshot.Load().Age(now)
}

// SetSignals replaces the per-scope slot for one signal name. The slot
// is whatever the owning refresh task last computed; the builder folds
// it into composites as-is.
func (s *Store) SetSignals(name string, byScope map[string]*models.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[name] = byScope
}

// Signals returns the last stored per-scope map for one signal name,
// nil when the owning task has not completed a cycle yet.
func (s *Store) Signals(name string) map[string]*models.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signals[name]
}

// Signal returns one scoped signal, nil when absent. A nil *Signal is
// safe to pass into composite blending.
func (s *Store) Signal(name, scope string) *models.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signals[name][scope]
}

// SetForecasts replaces the supplemental forecast summaries.
func (s *Store) SetForecasts(byScope map[string]models.ForecastSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecasts = byScope
}

// Forecasts returns a shallow copy of the forecast slot.
func (s *Store) Forecasts() map[string]models.ForecastSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.ForecastSummary, len(s.forecasts))
	for k, v := range s.forecasts {
		out[k] = v
	}
	return out
}

// SetAlerts replaces the alert entries owned by one source.
func (s *Store) SetAlerts(source string, alerts []models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[source] = alerts
}

// Alerts merges every source's alert entries, grouped by source name in
// stable order.
func (s *Store) Alerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sources := make([]string, 0, len(s.alerts))
	for src := range s.alerts {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	var out []models.Alert
	for _, src := range sources {
		out = append(out, s.alerts[src]...)
	}
	return out
}

// BeginFetch marks a source as mid-cycle.
func (s *Store) BeginFetch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status(name)
	st.Fetching = true
}

// EndFetch marks a cycle finished. A nil err records a fresh
// LastUpdated; a non-nil err keeps the previous one and records the
// message.
func (s *Store) EndFetch(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status(name)
	st.Fetching = false
	if err != nil {
		st.LastError = err.Error()
		return
	}
	st.LastError = ""
	st.LastUpdated = time.Now().UTC()
}

func (s *Store) status(name string) *models.SourceStatus {
	st, ok := s.statuses[name]
	if !ok {
		st = &models.SourceStatus{Name: name}
		s.statuses[name] = st
	}
	return st
}

// Status returns a point-in-time copy of every source's liveness,
// sorted by name.
func (s *Store) Status() []models.SourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SourceStatus, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
