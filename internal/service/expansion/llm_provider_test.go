package expansion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindweave-backend/domain/core/aggregates"
	"mindweave-backend/domain/core/entities"
)

// stubCompleter returns canned responses and records prompts
type stubCompleter struct {
	response  string
	err       error
	available bool
	prompts   []string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func (s *stubCompleter) IsAvailable() bool {
	return s.available
}

func llmTestGraph(t *testing.T) *aggregates.Graph {
	t.Helper()

	graph := aggregates.NewGraph("user-1", "ctx-1")
	for _, spec := range []struct{ id, name string }{
		{"n1", "Machine Learning"},
		{"n2", "Statistics"},
	} {
		node, err := entities.NewNode(spec.id, spec.name, 1.0, false, 0)
		require.NoError(t, err)
		require.NoError(t, graph.AddNode(node))
	}
	return graph
}

func TestLLMProvider_GenerateConcepts_ParsesResponse(t *testing.T) {
	// Arrange
	graph := llmTestGraph(t)
	completer := &stubCompleter{
		available: true,
		response:  `[{"name": "Neural Networks", "confidence": 0.9}, {"name": "Bayesian Inference", "confidence": 0.8}]`,
	}
	provider := NewLLMProvider(completer)

	gen := GenerateContext{
		OwnerID:      "user-1",
		ContextRef:   "ctx-1",
		FocusNode:    graph.Node("n1"),
		ExcludeNames: graph.ConceptNames(),
	}

	// Act
	candidates, err := provider.GenerateConcepts(context.Background(), graph, 5, gen)

	// Assert
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Neural Networks", candidates[0].Name)
	assert.Equal(t, 0.9, candidates[0].Confidence)

	// The prompt carries the focus node and the excluded concepts
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "Machine Learning")
	assert.Contains(t, completer.prompts[0], "Statistics")
}

func TestLLMProvider_PromptRendersOriginalCaseExclusions(t *testing.T) {
	// Arrange: the exclusion set is case-folded; one entry has no graph node
	graph := llmTestGraph(t)
	exclude := graph.ConceptNames()
	exclude["quantum computing"] = true

	completer := &stubCompleter{available: true, response: `[]`}
	provider := NewLLMProvider(completer)

	// Act
	_, err := provider.GenerateConcepts(context.Background(), graph, 3, GenerateContext{ExcludeNames: exclude})

	// Assert: graph-backed names keep their original casing, the rest
	// appear as stored
	require.NoError(t, err)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "- Machine Learning")
	assert.Contains(t, completer.prompts[0], "- Statistics")
	assert.Contains(t, completer.prompts[0], "- quantum computing")
	assert.NotContains(t, completer.prompts[0], "- machine learning")
}

func TestLLMProvider_GenerateConcepts_StripsMarkdownFences(t *testing.T) {
	completer := &stubCompleter{
		available: true,
		response:  "```json\n[{\"name\": \"Deep Learning\", \"confidence\": 0.85}]\n```",
	}
	provider := NewLLMProvider(completer)

	candidates, err := provider.GenerateConcepts(context.Background(), llmTestGraph(t), 3, GenerateContext{})

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Deep Learning", candidates[0].Name)
}

func TestLLMProvider_GenerateConcepts_FiltersInvalidCandidates(t *testing.T) {
	completer := &stubCompleter{
		available: true,
		response:  `[{"name": "", "confidence": 0.9}, {"name": "Valid", "confidence": 1.5}, {"name": "Kept", "confidence": 0.7}]`,
	}
	provider := NewLLMProvider(completer)

	candidates, err := provider.GenerateConcepts(context.Background(), llmTestGraph(t), 5, GenerateContext{})

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Kept", candidates[0].Name)
}

func TestLLMProvider_GenerateConcepts_TruncatesToCount(t *testing.T) {
	completer := &stubCompleter{
		available: true,
		response:  `[{"name": "A", "confidence": 0.9}, {"name": "B", "confidence": 0.8}, {"name": "C", "confidence": 0.7}]`,
	}
	provider := NewLLMProvider(completer)

	candidates, err := provider.GenerateConcepts(context.Background(), llmTestGraph(t), 2, GenerateContext{})

	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestLLMProvider_GenerateConcepts_MalformedJSONFails(t *testing.T) {
	completer := &stubCompleter{available: true, response: "not json at all"}
	provider := NewLLMProvider(completer)

	_, err := provider.GenerateConcepts(context.Background(), llmTestGraph(t), 3, GenerateContext{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLLMProvider_GenerateConcepts_UnavailableBackendFails(t *testing.T) {
	provider := NewLLMProvider(&stubCompleter{available: false})

	_, err := provider.GenerateConcepts(context.Background(), llmTestGraph(t), 3, GenerateContext{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestLLMProvider_GenerateConnections_DropsUnknownNodes(t *testing.T) {
	// Arrange: one valid pair, one unknown endpoint, one self-loop
	completer := &stubCompleter{
		available: true,
		response: `[
			{"source_id": "n1", "target_id": "n2", "weight": 0.8, "reason": "related fields"},
			{"source_id": "n1", "target_id": "ghost", "weight": 0.9, "reason": "bad"},
			{"source_id": "n2", "target_id": "n2", "weight": 0.5, "reason": "self"}
		]`,
	}
	provider := NewLLMProvider(completer)

	// Act
	connections, err := provider.GenerateConnections(context.Background(), llmTestGraph(t), 5, GenerateContext{})

	// Assert
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, "n1", connections[0].SourceID)
	assert.Equal(t, "n2", connections[0].TargetID)
}

func TestLLMProvider_GenerateInsights_TagsLevel(t *testing.T) {
	completer := &stubCompleter{
		available: true,
		response:  `[{"content": "The graph now spans theory and practice"}, {"content": ""}]`,
	}
	provider := NewLLMProvider(completer)

	insights, err := provider.GenerateInsights(context.Background(), llmTestGraph(t), GenerateContext{Level: 2})

	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, 2, insights[0].Level)
	assert.Equal(t, "The graph now spans theory and practice", insights[0].Content)
}

func TestCleanJSONResponse(t *testing.T) {
	assert.Equal(t, `[1]`, cleanJSONResponse("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, cleanJSONResponse("```\n[1]\n```"))
	assert.Equal(t, `[1]`, cleanJSONResponse("  [1]  "))
}
