package events

import (
	"context"

	"mindweave-backend/domain/events"
)

// LocalEventBus delivers events synchronously through a HandlerRegistry.
// It is the default bus when no external messaging backend is configured.
type LocalEventBus struct {
	registry *HandlerRegistry
}

// NewLocalEventBus creates a bus backed by the given registry
func NewLocalEventBus(registry *HandlerRegistry) *LocalEventBus {
	return &LocalEventBus{registry: registry}
}

// Publish dispatches a single event to registered handlers
func (b *LocalEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	b.registry.Dispatch(ctx, event)
	return nil
}

// PublishBatch dispatches multiple events in order
func (b *LocalEventBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		b.registry.Dispatch(ctx, event)
	}
	return nil
}
