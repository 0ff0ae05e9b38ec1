package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type constants for expansion job lifecycle notifications
const (
	EventTypeExpansionStarted            = "ExpansionStarted"
	EventTypeExpansionProgress           = "ExpansionProgress"
	EventTypeExpansionCompleted          = "ExpansionCompleted"
	EventTypeExpansionPartiallyCompleted = "ExpansionPartiallyCompleted"
	EventTypeExpansionFailed             = "ExpansionFailed"
	EventTypeExpansionCancelled          = "ExpansionCancelled"
)

// SourceBackend identifies this service as the event source
const SourceBackend = "mindweave.backend"

// DomainEvent represents an important business occurrence in the domain
type DomainEvent interface {
	// EventID returns a unique identifier for this event instance
	EventID() string

	// EventType returns the type of event (e.g., "ExpansionStarted")
	EventType() string

	// AggregateID returns the ID of the aggregate that generated this event
	AggregateID() string

	// OwnerID returns the ID of the user who triggered this event
	OwnerID() string

	// Timestamp returns when the event occurred
	Timestamp() time.Time

	// EventData returns the event-specific data
	EventData() map[string]interface{}
}

// BaseEvent provides common functionality for all domain events
type BaseEvent struct {
	eventID     string
	eventType   string
	aggregateID string
	ownerID     string
	timestamp   time.Time
}

// EventID returns the unique event identifier
func (e BaseEvent) EventID() string {
	return e.eventID
}

// EventType returns the type of event
func (e BaseEvent) EventType() string {
	return e.eventType
}

// AggregateID returns the aggregate identifier
func (e BaseEvent) AggregateID() string {
	return e.aggregateID
}

// OwnerID returns the owning user identifier
func (e BaseEvent) OwnerID() string {
	return e.ownerID
}

// Timestamp returns the event timestamp
func (e BaseEvent) Timestamp() time.Time {
	return e.timestamp
}

// NewBaseEvent creates a new base event with common fields
func NewBaseEvent(eventType, aggregateID, ownerID string) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New().String(),
		eventType:   eventType,
		aggregateID: aggregateID,
		ownerID:     ownerID,
		timestamp:   time.Now(),
	}
}
