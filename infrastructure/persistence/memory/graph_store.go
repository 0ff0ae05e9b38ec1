package memory

import (
	"context"
	"fmt"
	"sync"

	"mindweave-backend/application/ports"
	"mindweave-backend/domain/core/aggregates"
	"mindweave-backend/domain/core/entities"
	pkgerrors "mindweave-backend/pkg/errors"
)

// storedGraph holds one owner/context graph's raw parts
type storedGraph struct {
	nodes []*entities.Node
	edges []entities.Edge
}

// GraphStore keeps concept graphs in memory, keyed by owner and context
// reference. FetchGraph rebuilds the aggregate from the stored parts so
// callers can mutate their copy freely.
type GraphStore struct {
	mu     sync.RWMutex
	graphs map[string]*storedGraph
}

// NewGraphStore creates an empty in-memory graph store
func NewGraphStore() *GraphStore {
	return &GraphStore{
		graphs: make(map[string]*storedGraph),
	}
}

// Seed replaces the stored graph for an owner and context. Intended for
// tests and local bootstrapping.
func (s *GraphStore) Seed(ownerID, contextRef string, nodes []*entities.Node, edges []entities.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graphs[graphKey(ownerID, contextRef)] = &storedGraph{
		nodes: append([]*entities.Node(nil), nodes...),
		edges: append([]entities.Edge(nil), edges...),
	}
}

// FetchGraph loads the graph for an owner and context reference. A
// missing graph is returned empty, not as an error.
func (s *GraphStore) FetchGraph(ctx context.Context, ownerID, contextRef string) (*aggregates.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph := aggregates.NewGraph(ownerID, contextRef)
	stored, exists := s.graphs[graphKey(ownerID, contextRef)]
	if !exists {
		return graph, nil
	}

	for _, node := range stored.nodes {
		if err := graph.AddNode(node); err != nil {
			return nil, pkgerrors.Wrap(err, fmt.Sprintf("stored graph for %s is inconsistent", contextRef))
		}
	}
	for _, edge := range stored.edges {
		if err := graph.AddEdge(edge); err != nil {
			return nil, pkgerrors.Wrap(err, fmt.Sprintf("stored graph for %s is inconsistent", contextRef))
		}
	}
	return graph, nil
}

// Persist appends newly generated nodes and edges to the stored graph
func (s *GraphStore) Persist(ctx context.Context, ownerID, contextRef string, nodes []*entities.Node, edges []entities.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := graphKey(ownerID, contextRef)
	stored, exists := s.graphs[key]
	if !exists {
		stored = &storedGraph{}
		s.graphs[key] = stored
	}

	stored.nodes = append(stored.nodes, nodes...)
	stored.edges = append(stored.edges, edges...)
	return nil
}

// NodeCount returns the stored node count for an owner and context
func (s *GraphStore) NodeCount(ownerID, contextRef string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.graphs[graphKey(ownerID, contextRef)]
	if !exists {
		return 0
	}
	return len(stored.nodes)
}

func graphKey(ownerID, contextRef string) string {
	return ownerID + "#" + contextRef
}

var _ ports.GraphStore = (*GraphStore)(nil)
