package aggregates

import (
	"fmt"
	"strings"

	"mindweave-backend/domain/core/entities"
	pkgerrors "mindweave-backend/pkg/errors"
)

// Graph is the aggregate root for a concept graph. It owns the consistency
// boundary: every edge must reference nodes that exist in the graph, node
// ids are unique, and node insertion order is preserved.
type Graph struct {
	ownerID    string
	contextRef string
	nodes      []*entities.Node
	nodeIndex  map[string]*entities.Node
	edges      []entities.Edge
}

// NewGraph creates an empty graph for the given owner and context
func NewGraph(ownerID, contextRef string) *Graph {
	return &Graph{
		ownerID:    ownerID,
		contextRef: contextRef,
		nodes:      []*entities.Node{},
		nodeIndex:  make(map[string]*entities.Node),
		edges:      []entities.Edge{},
	}
}

// OwnerID returns the owning user id
func (g *Graph) OwnerID() string {
	return g.ownerID
}

// ContextRef returns the context reference this graph belongs to
func (g *Graph) ContextRef() string {
	return g.contextRef
}

// AddNode adds a node to the graph, rejecting duplicate ids
func (g *Graph) AddNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidation("node cannot be nil")
	}
	if _, exists := g.nodeIndex[node.ID()]; exists {
		return pkgerrors.NewValidation(fmt.Sprintf("node %s already exists in graph", node.ID()))
	}

	g.nodes = append(g.nodes, node)
	g.nodeIndex[node.ID()] = node
	return nil
}

// AddEdge adds an edge, enforcing that both endpoints exist. Duplicate
// source/target pairs are permitted; callers are expected to avoid them.
func (g *Graph) AddEdge(edge entities.Edge) error {
	if _, exists := g.nodeIndex[edge.SourceID]; !exists {
		return pkgerrors.NewValidation(fmt.Sprintf("edge source %s does not exist in graph", edge.SourceID))
	}
	if _, exists := g.nodeIndex[edge.TargetID]; !exists {
		return pkgerrors.NewValidation(fmt.Sprintf("edge target %s does not exist in graph", edge.TargetID))
	}

	g.edges = append(g.edges, edge)
	return nil
}

// Node returns the node with the given id, or nil if absent
func (g *Graph) Node(id string) *entities.Node {
	return g.nodeIndex[id]
}

// HasNode reports whether a node id exists in the graph
func (g *Graph) HasNode(id string) bool {
	_, exists := g.nodeIndex[id]
	return exists
}

// Nodes returns the nodes in insertion order. The returned slice is a
// copy; the nodes themselves are shared.
func (g *Graph) Nodes() []*entities.Node {
	out := make([]*entities.Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NodesAtDepth returns the nodes introduced at the given expansion level,
// in insertion order.
func (g *Graph) NodesAtDepth(level int) []*entities.Node {
	var out []*entities.Node
	for _, node := range g.nodes {
		if node.DepthLevel() == level {
			out = append(out, node)
		}
	}
	return out
}

// Edges returns a copy of the edge list
func (g *Graph) Edges() []entities.Edge {
	out := make([]entities.Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// ConceptNames returns the set of node names, folded to lower case.
// The expansion engine seeds its de-duplication set from this.
func (g *Graph) ConceptNames() map[string]bool {
	names := make(map[string]bool, len(g.nodes))
	for _, node := range g.nodes {
		names[strings.ToLower(node.Name())] = true
	}
	return names
}
