package mock

import (
	"context"
	"log/slog"

	"property-brokerage-system/internal/core/domain"
)

// Broker is a stub EventPublisher for local development without Kafka.
type Broker struct {
	logger *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{logger: logger}
}

func (b *Broker) Close() error {
	return nil
}

func (b *Broker) Publish(_ context.Context, ev domain.LifecycleEvent) error {
	b.logger.Info("[MOCK] lifecycle event",
		"type", ev.Type, "property_id", ev.PropertyID, "status", ev.Status)
	return nil
}
