package repository

import (
	"context"

	"TradeScope/internal/domain/models"
	domrepo "TradeScope/internal/domain/repository"
	pkgkafka "TradeScope/pkg/kafka"
)

// KafkaDecisionPublisher pushes completed decisions to Kafka, keyed by subject
// so per-subject ordering is preserved across partitions.
type KafkaDecisionPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaDecisionPublisher(producer *pkgkafka.Producer, topic string) domrepo.DecisionPublisher {
	return &KafkaDecisionPublisher{producer: producer, topic: topic}
}

func (p *KafkaDecisionPublisher) PublishDecision(ctx context.Context, d *models.Decision) error {
	return p.producer.Publish(ctx, p.topic, []byte(d.Subject), d)
}

func (p *KafkaDecisionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
