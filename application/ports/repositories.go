package ports

import (
	"context"
	"time"

	"mindweave-backend/domain/core/aggregates"
	"mindweave-backend/domain/core/entities"
	"mindweave-backend/domain/events"
)

// GraphStore abstracts persistence for concept graphs
type GraphStore interface {
	// FetchGraph loads the graph for an owner and context reference
	FetchGraph(ctx context.Context, ownerID, contextRef string) (*aggregates.Graph, error)

	// Persist appends newly generated nodes and edges to the stored graph
	Persist(ctx context.Context, ownerID, contextRef string, nodes []*entities.Node, edges []entities.Edge) error
}

// JobStore manages expansion job records
type JobStore interface {
	// Store saves a new job record
	Store(ctx context.Context, job *ExpansionJob) error

	// Get retrieves a job record by ID
	Get(ctx context.Context, jobID string) (*ExpansionJob, error)

	// Update replaces an existing job record
	Update(ctx context.Context, job *ExpansionJob) error

	// Delete removes a job record
	Delete(ctx context.Context, jobID string) error

	// CleanupExpired removes job records older than the given duration
	CleanupExpired(ctx context.Context, olderThan time.Duration) error
}

// EventBus publishes domain events to interested listeners
type EventBus interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, batch []events.DomainEvent) error
}
