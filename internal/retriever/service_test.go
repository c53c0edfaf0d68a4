package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devctx/knowctx/internal/embedder"
	"github.com/devctx/knowctx/internal/indexer"
	"github.com/devctx/knowctx/internal/storage"
	"github.com/devctx/knowctx/pkg/types"
)

// countingStore wraps a real store and counts candidate loads, so cache
// behavior is observable from the outside.
type countingStore struct {
	storage.Store
	loads int
}

func (c *countingStore) LoadEmbeddedChunks(ctx context.Context) ([]types.EmbeddedChunk, error) {
	c.loads++
	return c.Store.LoadEmbeddedChunks(ctx)
}

// erroringEmbedder fails every call
type erroringEmbedder struct{}

func (e *erroringEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return nil, errors.New("provider unavailable")
}

func (e *erroringEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	return nil, errors.New("provider unavailable")
}

func (e *erroringEmbedder) Dimension() int   { return embedder.LocalDimension }
func (e *erroringEmbedder) Provider() string { return "erroring" }
func (e *erroringEmbedder) Model() string    { return "erroring" }
func (e *erroringEmbedder) Close() error     { return nil }

func newTestService(t *testing.T) (*Service, *countingStore) {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	idx := indexer.New(store, emb)
	docs := []*types.Document{
		{
			ID:      "doc-go",
			Content: "Goroutines are lightweight threads. Channels carry values between goroutines and synchronize execution.",
			Source:  types.DocumentSource{Type: types.SourceMarkdown},
			Metadata: types.DocumentMetadata{
				Title:    "Concurrency",
				Language: "go",
				Quality:  types.QualityGold,
			},
		},
		{
			ID:      "doc-py",
			Content: "Generators yield values lazily. Decorators wrap callables to extend their behavior without modification.",
			Source:  types.DocumentSource{Type: types.SourceMarkdown},
			Metadata: types.DocumentMetadata{
				Title:    "Python Idioms",
				Language: "python",
				Quality:  types.QualitySilver,
			},
		},
	}
	for _, doc := range docs {
		_, err := idx.IngestDocument(context.Background(), doc, nil)
		require.NoError(t, err)
	}

	counting := &countingStore{Store: store}
	return NewService(counting, emb), counting
}

func TestServiceRetrieve(t *testing.T) {
	svc, _ := newTestService(t)

	response, err := svc.Retrieve(context.Background(), types.RetrievalQuery{
		Text: "goroutines and channels",
	})
	require.NoError(t, err)

	assert.Equal(t, "goroutines and channels", response.Query)
	require.NotEmpty(t, response.Results)
	assert.Greater(t, response.TotalCandidates, 0)

	top := response.Results[0]
	assert.NotEmpty(t, top.Chunk.ID)
	assert.Equal(t, top.ScoreBreakdown.Combined, top.Score)
	assert.Greater(t, top.ScoreBreakdown.Keyword, 0.0, "query terms appear verbatim in the corpus")
}

func TestServiceRetrieveEmptyQuery(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Retrieve(context.Background(), types.RetrievalQuery{Text: "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestServiceRetrieveInvalidOptions(t *testing.T) {
	svc, _ := newTestService(t)

	opts := types.DefaultRetrievalOptions()
	opts.Limit = 0
	_, err := svc.Retrieve(context.Background(), types.RetrievalQuery{
		Text:    "channels",
		Options: &opts,
	})
	require.Error(t, err)

	var validation *types.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "limit", validation.Field)
}

func TestServiceRetrieveEmbedderError(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	svc := NewService(store, &erroringEmbedder{})
	_, err = svc.Retrieve(context.Background(), types.RetrievalQuery{Text: "channels"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed query")
}

func TestServiceRetrieveFilters(t *testing.T) {
	svc, _ := newTestService(t)

	response, err := svc.Retrieve(context.Background(), types.RetrievalQuery{
		Text:    "values",
		Filters: &types.RetrievalFilters{Languages: []string{"python"}},
	})
	require.NoError(t, err)

	for _, res := range response.Results {
		assert.Equal(t, "doc-py", res.Chunk.DocumentID)
	}
}

func TestServiceCachesRepeatedQueries(t *testing.T) {
	svc, counting := newTestService(t)
	query := types.RetrievalQuery{Text: "goroutines"}

	first, err := svc.Retrieve(context.Background(), query)
	require.NoError(t, err)
	second, err := svc.Retrieve(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, 1, counting.loads, "second call should hit the cache")
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.TotalCandidates, second.TotalCandidates)
}

func TestServiceCacheReturnsCopies(t *testing.T) {
	svc, _ := newTestService(t)
	query := types.RetrievalQuery{Text: "goroutines"}

	first, err := svc.Retrieve(context.Background(), query)
	require.NoError(t, err)
	require.NotEmpty(t, first.Results)

	// Corrupt the returned response; the cache must not see it
	first.Results[0].Score = -99
	first.Results[0].Chunk.Content = "mutated"

	second, err := svc.Retrieve(context.Background(), query)
	require.NoError(t, err)
	assert.NotEqual(t, -99.0, second.Results[0].Score)
	assert.NotEqual(t, "mutated", second.Results[0].Chunk.Content)
}

func TestServiceCacheKeyedByOptions(t *testing.T) {
	svc, counting := newTestService(t)

	_, err := svc.Retrieve(context.Background(), types.RetrievalQuery{Text: "goroutines"})
	require.NoError(t, err)

	opts := types.DefaultRetrievalOptions()
	opts.Limit = 3
	_, err = svc.Retrieve(context.Background(), types.RetrievalQuery{Text: "goroutines", Options: &opts})
	require.NoError(t, err)

	assert.Equal(t, 2, counting.loads, "different options should not share a cache entry")
}

func TestServiceCacheKeyedByFilters(t *testing.T) {
	svc, counting := newTestService(t)

	_, err := svc.Retrieve(context.Background(), types.RetrievalQuery{Text: "values"})
	require.NoError(t, err)

	_, err = svc.Retrieve(context.Background(), types.RetrievalQuery{
		Text:    "values",
		Filters: &types.RetrievalFilters{Languages: []string{"go"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, counting.loads)
}

func TestServiceInvalidateCache(t *testing.T) {
	svc, counting := newTestService(t)
	query := types.RetrievalQuery{Text: "goroutines"}

	_, err := svc.Retrieve(context.Background(), query)
	require.NoError(t, err)

	svc.InvalidateCache()

	_, err = svc.Retrieve(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 2, counting.loads)
}

func TestServiceCacheTTLExpiry(t *testing.T) {
	svc, counting := newTestService(t)
	svc.cacheTTL = -time.Minute // entries expire immediately
	query := types.RetrievalQuery{Text: "goroutines"}

	_, err := svc.Retrieve(context.Background(), query)
	require.NoError(t, err)
	_, err = svc.Retrieve(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, 2, counting.loads, "expired entries should not serve hits")
}
