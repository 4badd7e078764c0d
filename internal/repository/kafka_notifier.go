package repository

import (
	"context"

	"SalesCast/internal/domain/models"
	domrepo "SalesCast/internal/domain/repository"
	pkgkafka "SalesCast/pkg/kafka"
)

// KafkaNotifier publishes notification events to the shared notifications
// topic. Messages are keyed by tenant so consumers see per-tenant order.
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaNotifier(producer *pkgkafka.Producer, topic string) domrepo.Notifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) PublishDrift(ctx context.Context, alert models.DriftAlert) error {
	return n.producer.Publish(ctx, n.topic, []byte(alert.TenantID), alert)
}

func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		return n.producer.Close()
	}
	return nil
}
