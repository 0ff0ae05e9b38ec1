// Package expansion implements the asynchronous knowledge-graph expansion
// engine: recursive, depth-bounded graph growth through pluggable
// generation providers, tracked as cancellable jobs and governed by
// memory admission control.
package expansion

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"mindweave-backend/application/ports"
	"mindweave-backend/domain/core/aggregates"
	"mindweave-backend/domain/core/entities"
	pkgerrors "mindweave-backend/pkg/errors"
)

// Candidate is a provider-proposed concept
type Candidate struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ConnectionCandidate is a provider-proposed edge between existing nodes
type ConnectionCandidate struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Weight   float64 `json:"weight"`
	Reason   string  `json:"reason,omitempty"`
}

// GenerateContext carries per-request context into a provider call
type GenerateContext struct {
	// OwnerID identifies the requesting user
	OwnerID string

	// ContextRef identifies the graph being expanded
	ContextRef string

	// Strategy is an opaque tag chosen by the caller
	Strategy string

	// FocusNode is the node candidates should relate to, when set
	FocusNode *entities.Node

	// ExcludeNames holds lower-cased concept names already present
	ExcludeNames map[string]bool

	// Level is the depth level being generated
	Level int
}

// Provider supplies new concepts and connections for graph expansion.
// Both operations are required; insight generation is optional via
// InsightGenerator.
type Provider interface {
	// GenerateConcepts proposes up to count new concepts for the graph
	GenerateConcepts(ctx context.Context, graph *aggregates.Graph, count int, gen GenerateContext) ([]Candidate, error)

	// GenerateConnections proposes up to count edges between existing nodes
	GenerateConnections(ctx context.Context, graph *aggregates.Graph, count int, gen GenerateContext) ([]ConnectionCandidate, error)
}

// InsightGenerator is the optional provider capability of summarizing an
// expansion level.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, graph *aggregates.Graph, gen GenerateContext) ([]ports.Insight, error)
}

// Registry holds registered generation providers keyed by id.
// No default provider exists; callers must register at least one.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under an id. The last registration for a
// given id wins.
func (r *Registry) Register(id string, provider Provider) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.NewValidation("provider id cannot be empty")
	}
	if provider == nil {
		return pkgerrors.NewValidation("provider cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[id] = provider
	return nil
}

// Get returns the provider registered under id
func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[id]
	if !ok {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("provider %s is not registered", id))
	}
	return provider, nil
}

// Has reports whether a provider id is registered
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[id]
	return ok
}

// IDs returns the registered provider ids
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
