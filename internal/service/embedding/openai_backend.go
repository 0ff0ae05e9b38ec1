package embedding

import (
	"context"

	pkgerrors "mindweave-backend/pkg/errors"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// embeddingClient is the slice of the OpenAI client the backend needs,
// extracted so tests can stub the network.
type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIBackend computes embeddings through the OpenAI API. Calls run
// behind a circuit breaker so a degraded API fails fast instead of
// stalling every in-flight expansion job.
type OpenAIBackend struct {
	client    embeddingClient
	model     openai.EmbeddingModel
	dimension int
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

// NewOpenAIBackend creates a backend for the given API key and model
func NewOpenAIBackend(apiKey, model string, dimension int, logger *zap.Logger) *OpenAIBackend {
	return newOpenAIBackend(openai.NewClient(apiKey), model, dimension, logger)
}

func newOpenAIBackend(client embeddingClient, model string, dimension int, logger *zap.Logger) *OpenAIBackend {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai-embeddings",
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Embedding backend circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &OpenAIBackend{
		client:    client,
		model:     openai.EmbeddingModel(model),
		dimension: dimension,
		breaker:   breaker,
		logger:    logger,
	}
}

// Embed computes vectors for the given texts in a single API call
func (b *OpenAIBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      texts,
			Model:      b.model,
			Dimensions: b.dimension,
		})
	})
	if err != nil {
		return nil, pkgerrors.NewInternal("embedding backend call failed", err)
	}

	resp := result.(openai.EmbeddingResponse)
	if len(resp.Data) != len(texts) {
		return nil, pkgerrors.NewInternal("embedding backend returned unexpected vector count", nil)
	}

	vectors := make([][]float32, len(texts))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// Dimension returns the configured vector dimension
func (b *OpenAIBackend) Dimension() int {
	return b.dimension
}

// ModelName identifies the configured OpenAI embedding model
func (b *OpenAIBackend) ModelName() string {
	return string(b.model)
}
