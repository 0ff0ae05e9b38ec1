package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// LocalBackend produces deterministic pseudo-embeddings from text hashes.
// It exists for development and tests; vectors for the same text are
// always identical, and vectors for related texts share no structure.
type LocalBackend struct {
	dimension int
}

// NewLocalBackend creates a local backend with the given dimension
func NewLocalBackend(dimension int) *LocalBackend {
	if dimension <= 0 {
		dimension = 64
	}
	return &LocalBackend{dimension: dimension}
}

// Embed computes one deterministic unit vector per text
func (b *LocalBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = b.vectorFor(text)
	}
	return vectors, nil
}

// Dimension returns the configured vector dimension
func (b *LocalBackend) Dimension() int {
	return b.dimension
}

// ModelName identifies the local pseudo-embedding model
func (b *LocalBackend) ModelName() string {
	return "local-hash-v1"
}

// vectorFor derives a unit vector from a seeded hash sequence
func (b *LocalBackend) vectorFor(text string) []float32 {
	hasher := fnv.New64a()
	hasher.Write([]byte(text))
	seed := hasher.Sum64()

	vector := make([]float32, b.dimension)
	var norm float64
	state := seed
	for i := range vector {
		// xorshift64 keeps components reproducible per text
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		component := float64(int64(state%2001)-1000) / 1000.0
		vector[i] = float32(component)
		norm += component * component
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vector[0] = 1
		return vector
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}
