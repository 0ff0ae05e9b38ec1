package expansion

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// chatClient is the subset of the OpenAI client used for completions,
// extracted so tests can stub the transport.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICompleter implements Completer over the OpenAI chat completion API,
// guarded by a circuit breaker so a degraded upstream fails fast instead of
// stalling expansion jobs.
type OpenAICompleter struct {
	client  chatClient
	model   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewOpenAICompleter creates a chat completion backend for the given model
func NewOpenAICompleter(apiKey, model string, logger *zap.Logger) *OpenAICompleter {
	if model == "" {
		model = openai.GPT4oMini
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai-chat",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &OpenAICompleter{
		client:  openai.NewClient(apiKey),
		model:   model,
		breaker: breaker,
		logger:  logger,
	}
}

// Complete sends the prompt to the chat completion API and returns the raw
// assistant response.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		request := openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a knowledge graph assistant. Respond only with the requested JSON.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: float32(options.Temperature),
			MaxTokens:   options.MaxTokens,
		}

		response, err := c.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return nil, err
		}
		if len(response.Choices) == 0 {
			return nil, fmt.Errorf("completion returned no choices")
		}
		return response.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return result.(string), nil
}

// IsAvailable reports whether the breaker currently allows requests
func (c *OpenAICompleter) IsAvailable() bool {
	return c.breaker.State() != gobreaker.StateOpen
}
