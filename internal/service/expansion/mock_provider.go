package expansion

import (
	"context"
	"fmt"

	"mindweave-backend/application/ports"
	"mindweave-backend/domain/core/aggregates"
)

// MockProvider is a deterministic generation provider for testing and
// development. For a focus node named X it proposes "X Analysis",
// "X Theory", and "X Framework" with descending confidence.
type MockProvider struct {
	available bool
}

// NewMockProvider creates a new mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{available: true}
}

// SetAvailable controls whether the mock provider fails (for testing)
func (m *MockProvider) SetAvailable(available bool) {
	m.available = available
}

var mockSuffixes = []struct {
	suffix     string
	confidence float64
}{
	{"Analysis", 0.9},
	{"Theory", 0.8},
	{"Framework", 0.7},
}

// GenerateConcepts proposes suffix-derived concepts for the focus node
func (m *MockProvider) GenerateConcepts(ctx context.Context, graph *aggregates.Graph, count int, gen GenerateContext) ([]Candidate, error) {
	if !m.available {
		return nil, fmt.Errorf("mock provider is not available")
	}
	if gen.FocusNode == nil || count <= 0 {
		return nil, nil
	}

	candidates := make([]Candidate, 0, count)
	for _, entry := range mockSuffixes {
		if len(candidates) >= count {
			break
		}
		candidates = append(candidates, Candidate{
			Name:       gen.FocusNode.Name() + " " + entry.suffix,
			Confidence: entry.confidence,
		})
	}
	return candidates, nil
}

// GenerateConnections returns no additional connections; the engine
// already links each generated concept to its originating node.
func (m *MockProvider) GenerateConnections(ctx context.Context, graph *aggregates.Graph, count int, gen GenerateContext) ([]ConnectionCandidate, error) {
	if !m.available {
		return nil, fmt.Errorf("mock provider is not available")
	}
	return nil, nil
}

// GenerateInsights produces a deterministic per-level summary
func (m *MockProvider) GenerateInsights(ctx context.Context, graph *aggregates.Graph, gen GenerateContext) ([]ports.Insight, error) {
	if !m.available {
		return nil, fmt.Errorf("mock provider is not available")
	}
	return []ports.Insight{
		{
			Content: fmt.Sprintf("Level %d grew the graph to %d concepts", gen.Level, graph.NodeCount()),
			Level:   gen.Level,
		},
	}, nil
}
