package usecase

import (
	"context"
	"encoding/json"
	"time"

	"GeoPulse/internal/domain/models"
	domrepo "GeoPulse/internal/domain/repository"
	pkgkafka "GeoPulse/pkg/kafka"
)

// KafkaObservationsHandler consumes observation messages and writes
// them to history storage. Used when the recording backend is kafka and
// this process also runs the storage side.
type KafkaObservationsHandler struct {
	topic   string
	storage domrepo.HistoryStore
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, storage domrepo.HistoryStore, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// incoming message schema: {item, t, v, w, region, source}
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Item   string  `json:"item"`
		T      int64   `json:"t"`
		V      float64 `json:"v"`
		W      float64 `json:"w"`
		Region string  `json:"region"`
		Source string  `json:"source"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	at := time.UnixMilli(m.T)
	if m.T < 1e11 { // seconds, not millis
		at = time.Unix(m.T, 0)
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(at).Seconds())

	start := time.Now()
	err := h.storage.AppendObservation(ctx, &models.Observation{
		ItemID: m.Item,
		At:     at,
		Value:  m.V,
		Weight: m.W,
		Region: m.Region,
		Source: m.Source,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordObservation("clickhouse", m.Source)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
