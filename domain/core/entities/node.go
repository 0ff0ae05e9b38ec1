package entities

import (
	"strings"
	"time"

	pkgerrors "mindweave-backend/pkg/errors"
)

// Node is the main entity representing a concept in the knowledge graph.
// Nodes are immutable after creation except for the lazily attached
// embedding vector.
type Node struct {
	id         string
	name       string
	weight     float64
	embedding  []float32
	generated  bool
	depthLevel int
	createdAt  time.Time
}

// NewNode creates a node with business rule validation.
// depthLevel 0 marks a seed node; generated nodes carry the level at
// which the expansion engine produced them.
func NewNode(id, name string, weight float64, generated bool, depthLevel int) (*Node, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.NewValidation("node id cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidation("node name cannot be empty")
	}
	if weight < 0 {
		return nil, pkgerrors.NewValidation("node weight cannot be negative")
	}
	if depthLevel < 0 {
		return nil, pkgerrors.NewValidation("node depth level cannot be negative")
	}

	return &Node{
		id:         id,
		name:       name,
		weight:     weight,
		generated:  generated,
		depthLevel: depthLevel,
		createdAt:  time.Now(),
	}, nil
}

// ID returns the stable node identifier
func (n *Node) ID() string {
	return n.id
}

// Name returns the concept name
func (n *Node) Name() string {
	return n.name
}

// Weight returns the node weight
func (n *Node) Weight() float64 {
	return n.weight
}

// Generated reports whether the expansion engine produced this node
func (n *Node) Generated() bool {
	return n.generated
}

// DepthLevel returns the expansion level the node was created at (0 = seed)
func (n *Node) DepthLevel() int {
	return n.depthLevel
}

// CreatedAt returns the node creation time
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// Embedding returns the attached embedding vector, or nil if none was
// computed yet.
func (n *Node) Embedding() []float32 {
	return n.embedding
}

// AttachEmbedding lazily attaches an embedding vector. The first attached
// vector wins; later calls are ignored so concurrent recomputation cannot
// flip a node's vector.
func (n *Node) AttachEmbedding(vector []float32) {
	if n.embedding != nil || len(vector) == 0 {
		return
	}
	n.embedding = vector
}
