package entities

import (
	"strings"
	"time"

	pkgerrors "mindweave-backend/pkg/errors"
)

// Edge represents a connection between two concepts. Edges are immutable
// once created. Weight typically carries a similarity or confidence score
// in [0,1].
type Edge struct {
	SourceID  string
	TargetID  string
	Weight    float64
	Generated bool
	CreatedAt time.Time
}

// NewEdge creates an edge with validation. It does not verify that the
// endpoints exist; the Graph aggregate enforces referential integrity.
func NewEdge(sourceID, targetID string, weight float64, generated bool) (Edge, error) {
	if strings.TrimSpace(sourceID) == "" || strings.TrimSpace(targetID) == "" {
		return Edge{}, pkgerrors.NewValidation("edge endpoints cannot be empty")
	}
	if sourceID == targetID {
		return Edge{}, pkgerrors.NewValidation("edge cannot connect a node to itself")
	}

	return Edge{
		SourceID:  sourceID,
		TargetID:  targetID,
		Weight:    weight,
		Generated: generated,
		CreatedAt: time.Now(),
	}, nil
}

// Key returns the source+target pair used to detect duplicate edges
func (e Edge) Key() string {
	return e.SourceID + "->" + e.TargetID
}
