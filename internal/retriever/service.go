package retriever

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/devctx/knowctx/internal/embedder"
	"github.com/devctx/knowctx/internal/storage"
	"github.com/devctx/knowctx/pkg/types"
)

// DefaultCacheTTL bounds how long a cached response stays valid
const DefaultCacheTTL = 1 * time.Hour

// cacheEntry is a cached retrieval response with expiration time
type cacheEntry struct {
	response  *types.RetrievalResponse
	expiresAt time.Time
}

// Service wires the pure retrieval engine to its collaborators: it loads
// the candidate set from storage, embeds the query text, runs the engine,
// and caches responses. The engine itself stays a pure function; all
// caching and I/O lives here.
type Service struct {
	store    storage.Store
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
	cacheTTL time.Duration
}

// NewService creates a retrieval service
func NewService(store storage.Store, emb embedder.Embedder) *Service {
	// 1000 entries; least recently used queries evict automatically
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// Only possible with an invalid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Service{
		store:    store,
		embedder: emb,
		cache:    cache,
		cacheTTL: DefaultCacheTTL,
	}
}

// Retrieve answers a query against everything currently ingested. Options
// default when the query carries none; defaults are validated like any
// caller-supplied options.
func (s *Service) Retrieve(ctx context.Context, query types.RetrievalQuery) (*types.RetrievalResponse, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}
	if strings.TrimSpace(query.Text) == "" {
		return nil, fmt.Errorf("query text cannot be empty")
	}

	opts := query.EffectiveOptions()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	hash := queryHash(query, opts)
	if cached := s.checkCache(hash); cached != nil {
		return cached, nil
	}

	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query.Text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	chunks, err := s.store.LoadEmbeddedChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	// Materialize the document join up front so the engine does no I/O
	metas, err := s.store.LoadDocumentMetas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load document metadata: %w", err)
	}

	engine := NewEngine(WithDocumentLookup(MetaMap(metas)))
	response, err := engine.HybridRetrieve(query, chunks, emb.Vector, opts)
	if err != nil {
		return nil, err
	}

	s.storeInCache(hash, response)
	return response, nil
}

// InvalidateCache drops all cached responses. Called after ingestion or
// removal changes the candidate population.
func (s *Service) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

func (s *Service) checkCache(hash [32]byte) *types.RetrievalResponse {
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

func (s *Service) storeInCache(hash [32]byte, response *types.RetrievalResponse) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(s.cacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
}

// copyResponse deep-copies a response so cached entries cannot be modified
// through returned values
func copyResponse(src *types.RetrievalResponse) *types.RetrievalResponse {
	if src == nil {
		return nil
	}

	dst := &types.RetrievalResponse{
		Query:            src.Query,
		TotalCandidates:  src.TotalCandidates,
		ProcessingTimeMs: src.ProcessingTimeMs,
		Results:          make([]types.RetrievalResult, len(src.Results)),
	}

	for i, r := range src.Results {
		copied := r
		if r.Chunk.Embedding != nil {
			copied.Chunk.Embedding = make([]float32, len(r.Chunk.Embedding))
			copy(copied.Chunk.Embedding, r.Chunk.Embedding)
		}
		dst.Results[i] = copied
	}

	return dst
}

// queryHash computes a deterministic cache key for a query and its
// effective options
func queryHash(query types.RetrievalQuery, opts types.RetrievalOptions) [32]byte {
	var data strings.Builder
	data.WriteString(query.Text)
	data.WriteString("|")
	fmt.Fprintf(&data, "%d|%.4f|%.4f|%t|%t", opts.Limit, opts.MinScore, opts.DiversityWeight, opts.IncludeMetadata, opts.Rerank)

	if query.Filters != nil {
		data.WriteString("|filters:")
		for _, st := range query.Filters.SourceTypes {
			data.WriteString(string(st))
			data.WriteString(",")
		}
		data.WriteString("|")
		data.WriteString(strings.Join(query.Filters.Languages, ","))
		data.WriteString("|")
		data.WriteString(strings.Join(query.Filters.Frameworks, ","))
		data.WriteString("|")
		for _, q := range query.Filters.QualityTiers {
			data.WriteString(string(q))
			data.WriteString(",")
		}
		data.WriteString("|")
		data.WriteString(strings.Join(query.Filters.Repositories, ","))
		data.WriteString("|")
		data.WriteString(strings.Join(query.Filters.Tags, ","))
	}

	return sha256.Sum256([]byte(data.String()))
}
