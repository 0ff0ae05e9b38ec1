package expansion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mindweave-backend/application/ports"
	"mindweave-backend/domain/core/aggregates"
)

// Completer defines the interface for LLM completion backends
// (OpenAI, Anthropic, etc.)
type Completer interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
}

// CompletionOptions configures LLM completion requests
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Format      string  `json:"format"` // "json" or "text"
}

// LLMProvider generates concepts, connections, and insights through an
// LLM completion backend.
type LLMProvider struct {
	completer Completer
}

// NewLLMProvider creates a provider over the given completion backend
func NewLLMProvider(completer Completer) *LLMProvider {
	return &LLMProvider{completer: completer}
}

// IsAvailable returns true if the completion backend is reachable
func (p *LLMProvider) IsAvailable() bool {
	return p.completer != nil && p.completer.IsAvailable()
}

// GenerateConcepts asks the LLM for related concepts around the focus node
func (p *LLMProvider) GenerateConcepts(ctx context.Context, graph *aggregates.Graph, count int, gen GenerateContext) ([]Candidate, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("LLM completion backend is not available")
	}
	if count <= 0 {
		return nil, nil
	}

	prompt := p.buildConceptPrompt(graph, count, gen)

	response, err := p.completer.Complete(ctx, prompt, CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   400,
		Format:      "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get LLM response: %w", err)
	}

	candidates, err := p.parseConceptResponse(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}

// GenerateConnections asks the LLM for edges between existing concepts
func (p *LLMProvider) GenerateConnections(ctx context.Context, graph *aggregates.Graph, count int, gen GenerateContext) ([]ConnectionCandidate, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("LLM completion backend is not available")
	}
	if count <= 0 {
		return nil, nil
	}

	prompt := p.buildConnectionPrompt(graph, count, gen)

	response, err := p.completer.Complete(ctx, prompt, CompletionOptions{
		Temperature: 0.3,
		MaxTokens:   500,
		Format:      "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get connection suggestions: %w", err)
	}

	connections, err := p.parseConnectionResponse(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection response: %w", err)
	}

	// Drop proposals referencing unknown nodes rather than failing the level
	valid := make([]ConnectionCandidate, 0, len(connections))
	for _, conn := range connections {
		if graph.HasNode(conn.SourceID) && graph.HasNode(conn.TargetID) && conn.SourceID != conn.TargetID {
			valid = append(valid, conn)
		}
	}
	if len(valid) > count {
		valid = valid[:count]
	}
	return valid, nil
}

// GenerateInsights asks the LLM to summarize the current expansion level
func (p *LLMProvider) GenerateInsights(ctx context.Context, graph *aggregates.Graph, gen GenerateContext) ([]ports.Insight, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("LLM completion backend is not available")
	}

	prompt := p.buildInsightPrompt(graph, gen)

	response, err := p.completer.Complete(ctx, prompt, CompletionOptions{
		Temperature: 0.5,
		MaxTokens:   300,
		Format:      "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get insights: %w", err)
	}

	return p.parseInsightResponse(response, gen.Level)
}

// buildConceptPrompt creates a prompt for concept generation
func (p *LLMProvider) buildConceptPrompt(graph *aggregates.Graph, count int, gen GenerateContext) string {
	focus := "the overall graph"
	if gen.FocusNode != nil {
		focus = fmt.Sprintf("%q", gen.FocusNode.Name())
	}

	excluded := p.excludedNames(graph, gen)

	return fmt.Sprintf(`You are an expert at exploring knowledge graphs. Suggest up to %d new concepts closely related to %s.

Concepts already in the graph (do not repeat any of these):
%s

Exploration strategy: %s

Return a JSON array with this structure:
[
  {"name": "Concept Name", "confidence": 0.9},
  {"name": "Another Concept", "confidence": 0.8}
]

Rules:
1. Concept names must be concise (1-4 words)
2. Confidence should be 0.0-1.0 and reflect how strongly the concept relates
3. Never repeat an excluded concept
4. Order results by descending confidence
`, count, focus, p.formatConceptList(excluded), p.strategyOrDefault(gen.Strategy))
}

// buildConnectionPrompt creates a prompt for connection discovery
func (p *LLMProvider) buildConnectionPrompt(graph *aggregates.Graph, count int, gen GenerateContext) string {
	nodes := graph.Nodes()
	nodeList := make([]string, len(nodes))
	for i, node := range nodes {
		nodeList[i] = fmt.Sprintf(`{"id": "%s", "name": "%s"}`, node.ID(), node.Name())
	}

	return fmt.Sprintf(`Find up to %d meaningful connections between these concepts that are not yet linked:

Concepts:
%s

Return a JSON array of connections:
[
  {"source_id": "id1", "target_id": "id2", "weight": 0.8, "reason": "why they relate"}
]

Rules:
1. Weight should be 0.0-1.0 (relationship strength)
2. Only connect concepts with a genuine semantic relationship
3. Use the exact ids given above
`, count, strings.Join(nodeList, ",\n"))
}

// buildInsightPrompt creates a prompt for level summaries
func (p *LLMProvider) buildInsightPrompt(graph *aggregates.Graph, gen GenerateContext) string {
	recent := graph.NodesAtDepth(gen.Level)
	names := make([]string, len(recent))
	for i, node := range recent {
		names[i] = node.Name()
	}

	return fmt.Sprintf(`The following concepts were just added to a knowledge graph:
%s

Return a JSON array of 1-2 short insights about how these concepts relate to the wider graph:
[
  {"content": "one sentence insight"}
]
`, p.formatConceptList(names))
}

// excludedNames renders the exclusion set with the graph's original-case
// names so the prompt reads naturally. The set itself is case-folded;
// entries with no graph counterpart are emitted as stored.
func (p *LLMProvider) excludedNames(graph *aggregates.Graph, gen GenerateContext) []string {
	covered := make(map[string]bool, len(gen.ExcludeNames))
	var excluded []string
	if graph != nil {
		for _, node := range graph.Nodes() {
			folded := strings.ToLower(node.Name())
			if gen.ExcludeNames[folded] && !covered[folded] {
				covered[folded] = true
				excluded = append(excluded, node.Name())
			}
		}
	}
	for name := range gen.ExcludeNames {
		if !covered[name] {
			excluded = append(excluded, name)
		}
	}
	return excluded
}

// formatConceptList formats concept names for a prompt
func (p *LLMProvider) formatConceptList(names []string) string {
	if len(names) == 0 {
		return "No concepts yet."
	}

	var formatted []string
	for _, name := range names {
		formatted = append(formatted, "- "+name)
	}
	return strings.Join(formatted, "\n")
}

func (p *LLMProvider) strategyOrDefault(strategy string) string {
	if strategy == "" {
		return "balanced breadth-first exploration"
	}
	return strategy
}

// parseConceptResponse parses the LLM response into candidates
func (p *LLMProvider) parseConceptResponse(response string) ([]Candidate, error) {
	var candidates []Candidate

	if err := json.Unmarshal([]byte(cleanJSONResponse(response)), &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	// Validate and filter candidates
	var valid []Candidate
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.Name) == "" {
			continue
		}
		if candidate.Confidence < 0 || candidate.Confidence > 1 {
			continue
		}
		valid = append(valid, candidate)
	}
	return valid, nil
}

// parseConnectionResponse parses connection suggestions from the LLM
func (p *LLMProvider) parseConnectionResponse(response string) ([]ConnectionCandidate, error) {
	var connections []ConnectionCandidate

	if err := json.Unmarshal([]byte(cleanJSONResponse(response)), &connections); err != nil {
		return nil, fmt.Errorf("failed to parse connection JSON: %w", err)
	}
	return connections, nil
}

// parseInsightResponse parses insights from the LLM
func (p *LLMProvider) parseInsightResponse(response string, level int) ([]ports.Insight, error) {
	var raw []struct {
		Content string `json:"content"`
	}

	if err := json.Unmarshal([]byte(cleanJSONResponse(response)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse insight JSON: %w", err)
	}

	insights := make([]ports.Insight, 0, len(raw))
	for _, item := range raw {
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		insights = append(insights, ports.Insight{Content: item.Content, Level: level})
	}
	return insights, nil
}

// cleanJSONResponse strips markdown fences the model may wrap around JSON
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}
	return response
}

// ensure the optional capability is implemented
var _ InsightGenerator = (*LLMProvider)(nil)
