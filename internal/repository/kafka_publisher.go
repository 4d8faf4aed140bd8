package repository

import (
	"context"

	"GeoPulse/internal/domain/models"
	"GeoPulse/internal/domain/repository"
	pkgkafka "GeoPulse/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by
// item so one item's readings stay ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka-backed observation publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o *models.Observation) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.ItemID), observationPayload(o))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(o.ItemID),
			Value: observationPayload(o),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func observationPayload(o *models.Observation) map[string]interface{} {
	return map[string]interface{}{
		"item":   o.ItemID,
		"t":      o.At.UnixMilli(),
		"v":      o.Value,
		"w":      o.Weight,
		"region": o.Region,
		"source": o.Source,
	}
}
