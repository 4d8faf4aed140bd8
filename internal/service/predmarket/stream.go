package predmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements ContractStream over the market's WebSocket feed.
// Price changes on subscribed contracts arrive as observations between
// refresh cycles.
type Stream struct {
	websocketURL   string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	assets    map[string]assetMeta
	conn      *websocket.Conn
	connected bool
	pingOnce  sync.Once
}

type assetMeta struct {
	region       string
	deEscalation bool
}

// NewStream creates a live contract price stream.
func NewStream(websocketURL string, reconnectDelay, pingInterval time.Duration) *Stream {
	return &Stream{
		websocketURL:   websocketURL,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		assets:         make(map[string]assetMeta),
	}
}

var _ drepo.ContractStream = (*Stream)(nil)

// Track registers contracts to watch. Takes effect on the next
// Subscribe or Reconnect.
func (s *Stream) Track(contracts []models.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = make(map[string]assetMeta, len(contracts))
	for _, c := range contracts {
		s.assets[c.ID] = assetMeta{region: c.Region, deEscalation: c.DeEscalation}
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("market stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	log.Printf("market stream: connected")
	return nil
}

// Subscribe subscribes to tracked contracts.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected {
		return fmt.Errorf("market stream not connected")
	}
	ids := make([]string, 0, len(s.assets))
	for id := range s.assets {
		ids = append(ids, id)
	}
	msg := map[string]interface{}{"type": "market", "assets_ids": ids}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %d assets: %w", len(ids), err)
	}
	log.Printf("market stream: subscribed %d assets", len(ids))
	return nil
}

type wsPriceChange struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Timestamp string `json:"timestamp"` // ms
}

// Read streams price-change observations and errors.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	obs := make(chan *models.Observation, 1024)
	errs := make(chan error, 1)

	// One ping loop per stream; Read is called again after reconnects.
	s.pingOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(s.pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.mu.Lock()
					conn := s.conn
					s.mu.Unlock()
					if conn != nil {
						_ = conn.WriteMessage(websocket.PingMessage, nil)
					}
				}
			}
		}()
	})

	// read loop
	go func() {
		defer close(obs)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn == nil {
					errs <- fmt.Errorf("market stream conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("market stream read: %w", err)
					return
				}
				var m wsPriceChange
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-price frames
					continue
				}
				if m.EventType != "price_change" {
					continue
				}
				if o := s.observation(m); o != nil {
					select {
					case obs <- o:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return obs, errs
}

func (s *Stream) observation(m wsPriceChange) *models.Observation {
	s.mu.Lock()
	meta, tracked := s.assets[m.AssetID]
	s.mu.Unlock()
	if !tracked {
		return nil
	}
	price, err := strconv.ParseFloat(m.Price, 64)
	if err != nil || price <= 0 || price >= 1 {
		return nil
	}
	if meta.deEscalation {
		price = 1 - price
	}
	size, _ := strconv.ParseFloat(m.Size, 64)
	at := time.Now().UTC()
	if ms, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil && ms > 0 {
		at = time.UnixMilli(ms)
	}
	return &models.Observation{
		ItemID: m.AssetID,
		At:     at,
		Value:  price,
		Weight: size,
		Region: meta.region,
		Source: models.SignalMarket,
	}
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
