package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultDimensions matches the vector column width in the pois table.
const DefaultDimensions = 1536

// DefaultModel is the embedding model used for both backfill and queries.
// Queries and documents must share a model or similarity is meaningless.
const DefaultModel = openai.SmallEmbedding3

// Provider turns text into a fixed-length vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

var _ Provider = (*OpenAIEmbedder)(nil)

// OpenAIEmbedder generates embeddings via the OpenAI API, memoizing repeated
// query texts in an in-process cache so hot vibe queries skip the network.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	cache      *cache.Cache
	logger     *slog.Logger
}

func NewOpenAIEmbedder(apiKey string, logger *slog.Logger) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client:     openai.NewClient(apiKey),
		model:      DefaultModel,
		dimensions: DefaultDimensions,
		cache:      cache.New(24*time.Hour, 1*time.Hour),
		logger:     logger,
	}
}

// Embed returns the embedding for text, from cache when available.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("OpenAIEmbedder").Start(ctx, "Embed")
	defer span.End()
	span.SetAttributes(attribute.Int("text.length", len(text)))

	if text == "" {
		span.SetStatus(codes.Error, "empty text")
		return nil, errors.New("embedding text must not be empty")
	}

	if cached, found := e.cache.Get(text); found {
		if vec, ok := cached.([]float32); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			span.SetStatus(codes.Ok, "embedding served from cache")
			return vec, nil
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     e.dimensions,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding request failed")
		return nil, parseAPIError(err)
	}
	if len(resp.Data) == 0 {
		span.SetStatus(codes.Error, "empty embedding response")
		return nil, errors.New("embedding response contained no data")
	}

	vec := resp.Data[0].Embedding
	if len(vec) != e.dimensions {
		span.SetStatus(codes.Error, "dimension mismatch")
		return nil, fmt.Errorf("expected %d dimensions, got %d", e.dimensions, len(vec))
	}

	e.cache.Set(text, vec, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "embedding generated")
	return vec, nil
}

// parseAPIError unwraps the provider error types into something loggable
// without leaking request internals.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("embedding provider request failed with status %d: %w", reqErr.HTTPStatusCode, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding provider rejected request (%s): %w", apiErr.Type, err)
	}
	return fmt.Errorf("embedding provider call failed: %w", err)
}
