package embedding

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	cache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbedder(t *testing.T, baseURL string, dimensions int) *OpenAIEmbedder {
	t.Helper()
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = baseURL
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      DefaultModel,
		dimensions: dimensions,
		cache:      cache.New(24*time.Hour, 1*time.Hour),
		logger:     slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func embeddingStub(t *testing.T, vector []float32, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		require.Equal(t, "/embeddings", r.URL.Path)

		resp := openai.EmbeddingResponse{
			Object: "list",
			Model:  DefaultModel,
			Data: []openai.Embedding{
				{Object: "embedding", Index: 0, Embedding: vector},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		calls := 0
		srv := embeddingStub(t, []float32{0.1, 0.2, 0.3}, &calls)
		defer srv.Close()

		embedder := newTestEmbedder(t, srv.URL, 3)
		vec, err := embedder.Embed(ctx, "cozy wine bar")

		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
		assert.Equal(t, 1, calls)
	})

	t.Run("repeated text is served from cache", func(t *testing.T) {
		calls := 0
		srv := embeddingStub(t, []float32{0.5, 0.5, 0.5}, &calls)
		defer srv.Close()

		embedder := newTestEmbedder(t, srv.URL, 3)

		first, err := embedder.Embed(ctx, "omakase counter")
		require.NoError(t, err)
		second, err := embedder.Embed(ctx, "omakase counter")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("empty text", func(t *testing.T) {
		embedder := newTestEmbedder(t, "http://unused", 3)

		_, err := embedder.Embed(ctx, "")

		require.Error(t, err)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		calls := 0
		srv := embeddingStub(t, []float32{0.1, 0.2}, &calls)
		defer srv.Close()

		embedder := newTestEmbedder(t, srv.URL, 3)
		_, err := embedder.Embed(ctx, "anything")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 3 dimensions")
	})

	t.Run("provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"requests"}}`))
		}))
		defer srv.Close()

		embedder := newTestEmbedder(t, srv.URL, 3)
		_, err := embedder.Embed(ctx, "anything")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding provider")
	})
}
