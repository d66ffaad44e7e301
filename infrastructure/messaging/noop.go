package messaging

import (
	"context"

	"go.uber.org/zap"

	"meishi-backend/application/ports"
	"meishi-backend/domain/events"
)

// NoopBus logs events instead of publishing them; used when no event bus is
// configured (local development, tests)
type NoopBus struct {
	logger *zap.Logger
}

// NewNoopBus creates a logging-only event bus
func NewNoopBus(logger *zap.Logger) ports.EventBus {
	return &NoopBus{logger: logger}
}

// Publish logs the event
func (b *NoopBus) Publish(ctx context.Context, event events.DomainEvent) error {
	b.logger.Debug("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
	)
	return nil
}

// PublishBatch logs each event
func (b *NoopBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := b.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
