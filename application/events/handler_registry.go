package events

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mindweave-backend/domain/events"

	"go.uber.org/zap"
)

// EventHandler is the interface that all event handlers must implement
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event events.DomainEvent) error

	// SupportsEvent checks if this handler supports the given event type
	SupportsEvent(eventType string) bool

	// Priority returns the handler's priority (lower numbers = higher priority)
	Priority() int

	// Name returns the handler's name for logging
	Name() string
}

// HandlerRegistry manages event handler registration and dispatching.
// Collaborators such as the momentum activity scorer register here to
// receive expansion lifecycle notifications.
type HandlerRegistry struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewHandlerRegistry creates a new event handler registry
func NewHandlerRegistry(logger *zap.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string][]EventHandler),
		logger:   logger,
	}
}

// Register adds a handler for specific event types
func (r *HandlerRegistry) Register(eventTypes []string, handler EventHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	for _, eventType := range eventTypes {
		if eventType == "" {
			return fmt.Errorf("event type cannot be empty")
		}

		if !handler.SupportsEvent(eventType) {
			return fmt.Errorf("handler %s does not support event type %s", handler.Name(), eventType)
		}

		r.handlers[eventType] = append(r.handlers[eventType], handler)
		r.sortHandlersByPriority(eventType)

		r.logger.Info("Registered event handler",
			zap.String("handler", handler.Name()),
			zap.String("eventType", eventType),
			zap.Int("priority", handler.Priority()),
		)
	}

	return nil
}

// Unregister removes a handler for specific event types
func (r *HandlerRegistry) Unregister(eventTypes []string, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, eventType := range eventTypes {
		handlers := r.handlers[eventType]
		filtered := []EventHandler{}

		for _, h := range handlers {
			if h != handler {
				filtered = append(filtered, h)
			}
		}

		if len(filtered) > 0 {
			r.handlers[eventType] = filtered
		} else {
			delete(r.handlers, eventType)
		}
	}
}

// Dispatch delivers an event to every registered handler for its type.
// A failing handler is logged and does not block later handlers.
func (r *HandlerRegistry) Dispatch(ctx context.Context, event events.DomainEvent) {
	r.mu.RLock()
	handlers := make([]EventHandler, len(r.handlers[event.EventType()]))
	copy(handlers, r.handlers[event.EventType()])
	r.mu.RUnlock()

	for _, handler := range handlers {
		if err := r.safeHandle(ctx, handler, event); err != nil {
			r.logger.Error("Event handler failed",
				zap.String("handler", handler.Name()),
				zap.String("eventType", event.EventType()),
				zap.String("eventId", event.EventID()),
				zap.Error(err),
			)
		}
	}
}

// HandlerCount returns the number of handlers registered for an event type
func (r *HandlerRegistry) HandlerCount(eventType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[eventType])
}

// safeHandle invokes a handler, converting panics into errors
func (r *HandlerRegistry) safeHandle(ctx context.Context, handler EventHandler, event events.DomainEvent) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return handler.Handle(ctx, event)
}

// sortHandlersByPriority sorts handlers for an event type by priority
func (r *HandlerRegistry) sortHandlersByPriority(eventType string) {
	handlers := r.handlers[eventType]
	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].Priority() < handlers[j].Priority()
	})
}
