// Package embedding provides the embedding similarity cache: a bounded,
// eviction-aware store of vector embeddings used to deduplicate expansion
// candidates and to answer nearest-neighbor similarity queries.
package embedding

import (
	"context"
)

// Backend computes fixed-dimension vector embeddings for text.
// Implementations must return one vector per input text, in order.
type Backend interface {
	// Embed computes vectors for the given texts
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension this backend produces
	Dimension() int

	// ModelName identifies the underlying embedding model
	ModelName() string
}
