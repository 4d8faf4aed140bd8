package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
)

// fakeContractStream fails its first read loop the way a dropped socket
// does: an error on errCh, then both channels closed. Later reads serve
// the queued observations and stay open.
type fakeContractStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	obs        []*models.Observation
}

func (s *fakeContractStream) Connect(context.Context) error   { return nil }
func (s *fakeContractStream) Subscribe(context.Context) error { return nil }
func (s *fakeContractStream) Close() error                    { return nil }
func (s *fakeContractStream) IsConnected() bool               { return true }

func (s *fakeContractStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *fakeContractStream) Read(context.Context) (<-chan *models.Observation, <-chan error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()

	obCh := make(chan *models.Observation, 16)
	errCh := make(chan error, 1)
	if first {
		errCh <- errors.New("read: connection reset")
		close(obCh)
		close(errCh)
		return obCh, errCh
	}
	for _, o := range s.obs {
		obCh <- o
	}
	return obCh, errCh
}

func (s *fakeContractStream) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.reconnects
}

var _ drepo.ContractStream = (*fakeContractStream)(nil)

func TestContractCollectorResumesAfterStreamFailure(t *testing.T) {
	h := &fakeHistory{}
	rec := NewObservationRecorder(nil, h, newFakeMetrics(), "clickhouse")
	stream := &fakeContractStream{obs: []*models.Observation{
		{ItemID: "c1", At: time.Now().UTC(), Value: 0.4, Weight: 100, Region: "europe", Source: models.SignalMarket},
	}}
	c := NewContractCollector(stream, rec, newFakeMetrics(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	var recorded int
	for i := 0; i < 200; i++ {
		h.mu.Lock()
		recorded = len(h.obs)
		h.mu.Unlock()
		if recorded > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if recorded != 1 {
		t.Fatalf("recorded = %d, want the post-reconnect observation consumed", recorded)
	}

	reads, reconnects := stream.counts()
	if reconnects != 1 {
		t.Fatalf("reconnects = %d, want exactly one after the dropped read", reconnects)
	}
	if reads != 2 {
		t.Fatalf("reads = %d, want a fresh read loop after reconnecting", reads)
	}
}
