package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_Deterministic(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	ctx := context.Background()
	a, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "hybrid retrieval"})
	require.NoError(t, err)
	b, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "hybrid retrieval"})
	require.NoError(t, err)

	assert.Equal(t, a.Vector, b.Vector, "same text must yield the same vector")
	assert.Equal(t, LocalDimension, a.Dimension)
	assert.Len(t, a.Vector, LocalDimension)
}

func TestLocalProvider_DistinctTexts(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)

	ctx := context.Background()
	a, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "first"})
	require.NoError(t, err)
	b, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "second"})
	require.NoError(t, err)

	assert.NotEqual(t, a.Vector, b.Vector)
}

func TestLocalProvider_UnitVectors(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)

	emb, err := provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "normalize me"})
	require.NoError(t, err)

	var sum float64
	for _, v := range emb.Vector {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestLocalProvider_EveryDimensionPopulated(t *testing.T) {
	vec := hashVector("some text", LocalDimension)

	zeros := 0
	for _, v := range vec {
		if v == 0 {
			zeros++
		}
	}
	assert.Less(t, zeros, LocalDimension/10, "hash expansion should fill the whole vector")
}

func TestLocalProvider_UsesCache(t *testing.T) {
	cache := NewCache(10)
	provider, err := NewLocalProvider(cache)
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "cache me"})
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Size())
	_, ok := cache.Get(CacheKey(ProviderLocal, provider.Model(), "cache me"))
	assert.True(t, ok)
}

func TestLocalProvider_Batch(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)

	resp, err := provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts: []string{"alpha", "beta", "gamma"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)
	assert.Equal(t, ProviderLocal, resp.Provider)

	single, err := provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "beta"})
	require.NoError(t, err)
	assert.Equal(t, single.Vector, resp.Embeddings[1].Vector, "batch order must match input order")
}

func TestLocalProvider_EmptyText(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(context.Background(), EmbeddingRequest{})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewOpenAIProvider("test-key", "", NewCache(10))
	require.NoError(t, err)
	provider.endpoint = server.URL
	return provider
}

func TestOpenAIProvider_GenerateBatch(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req.Model)

		// Respond out of order; the client must restore input order
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": req.Model,
			"data": []map[string]any{
				{"embedding": []float32{0, 1}, "index": 1},
				{"embedding": []float32{1, 0}, "index": 0},
			},
		})
	})

	resp, err := provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts: []string{"first", "second"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 2)

	assert.Equal(t, []float32{1, 0}, resp.Embeddings[0].Vector)
	assert.Equal(t, []float32{0, 1}, resp.Embeddings[1].Vector)
}

func TestOpenAIProvider_CachesResults(t *testing.T) {
	calls := 0
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": DefaultOpenAIModel,
			"data": []map[string]any{
				{"embedding": []float32{0.5, 0.5}, "index": 0},
			},
		})
	})

	ctx := context.Background()
	first, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "repeat"})
	require.NoError(t, err)
	second, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "repeat"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second call should be served from cache")
	assert.Equal(t, first.Vector, second.Vector)
}

func TestOpenAIProvider_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"invalid model"}`, http.StatusBadRequest)
	})

	_, err := provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderFailed)
	assert.Equal(t, 1, calls, "4xx responses must not be retried")
}

func TestOpenAIProvider_ServerErrorRetried(t *testing.T) {
	calls := 0
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": DefaultOpenAIModel,
			"data": []map[string]any{
				{"embedding": []float32{0.1}, "index": 0},
			},
		})
	})

	resp, err := provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, resp.Embeddings, 1)
}

func TestOpenAIProvider_BatchTooLarge(t *testing.T) {
	provider, err := NewOpenAIProvider("key", "", nil)
	require.NoError(t, err)

	texts := make([]string, MaxBatchSize+1)
	for i := range texts {
		texts[i] = "t"
	}

	_, err = provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: texts})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestRetryWithBackoff_PermanentStopsEarly(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: 1, MaxDelay: 1, Multiplier: 1}

	_, err := retryWithBackoff(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, permanent(errors.New("bad request"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: 1, MaxDelay: 1, Multiplier: 1}

	_, err := retryWithBackoff(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, errors.New("flaky")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}
