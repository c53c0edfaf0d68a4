package retriever

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/devctx/knowctx/internal/bm25"
	"github.com/devctx/knowctx/internal/vecmath"
	"github.com/devctx/knowctx/pkg/types"
)

// Signal weights for score combination. Quality is a token-count proxy for
// substance; recency and diversity enter the breakdown at neutral 1 until
// a later stage gives them meaning.
const (
	SemanticWeight = 0.6
	KeywordWeight  = 0.3
	QualityWeight  = 0.1

	// QualityTokenCeiling is the token estimate at which the quality
	// signal saturates at 1.
	QualityTokenCeiling = 500
)

// Engine is the hybrid retrieval core: a pure function from (query,
// candidate chunks, query embedding, options) to a ranked response. It
// performs no I/O, holds no per-call state, and never mutates its inputs,
// so concurrent calls over the same chunk collection are safe.
type Engine struct {
	lookup DocumentLookup
}

// Option configures an Engine
type Option func(*Engine)

// WithDocumentLookup supplies the document-metadata join used by the filter
// stage. Without one, queries carrying filters are rejected rather than
// silently unfiltered.
func WithDocumentLookup(lookup DocumentLookup) Option {
	return func(e *Engine) {
		e.lookup = lookup
	}
}

// NewEngine creates a retrieval engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HybridRetrieve runs the fixed pipeline: filter, semantic score, keyword
// score, combine and sort, threshold, then diversify or truncate. The
// returned response reports the post-filter candidate count and wall-clock
// processing time; the timer only measures, it never influences output.
func (e *Engine) HybridRetrieve(query types.RetrievalQuery, chunks []types.EmbeddedChunk, queryEmbedding []float32, opts types.RetrievalOptions) (*types.RetrievalResponse, error) {
	start := time.Now()

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	candidates, err := e.applyFilters(query.Filters, chunks)
	if err != nil {
		return nil, err
	}
	totalCandidates := len(candidates)

	response := &types.RetrievalResponse{
		Query:           query.Text,
		Results:         []types.RetrievalResult{},
		TotalCandidates: totalCandidates,
	}

	if totalCandidates == 0 {
		response.ProcessingTimeMs = elapsedMs(start)
		return response, nil
	}

	semantic, err := semanticScores(queryEmbedding, candidates)
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(candidates))
	for i := range candidates {
		contents[i] = candidates[i].Content
	}
	keyword := bm25.Scores(contents, query.Text)

	scored := combineScores(candidates, semantic, keyword, opts.IncludeMetadata)

	scored = applyThreshold(scored, opts.MinScore)

	if opts.DiversityWeight > 0 && len(scored) > opts.Limit {
		scored = maximalMarginalRelevance(scored, opts.Limit, opts.DiversityWeight)
	} else if len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}

	response.Results = scored
	response.ProcessingTimeMs = elapsedMs(start)
	return response, nil
}

// semanticScores maps cosine similarity into [0, 1] for each candidate.
// A chunk with no embedding scores 0 and stays in the pipeline; a present
// embedding with the wrong dimensionality aborts the whole call.
func semanticScores(queryEmbedding []float32, candidates []types.EmbeddedChunk) ([]float64, error) {
	scores := make([]float64, len(candidates))

	for i := range candidates {
		if !candidates[i].HasEmbedding() {
			continue
		}

		sim, err := vecmath.CosineSimilarity(queryEmbedding, candidates[i].Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", candidates[i].ID, err)
		}

		// Map [-1, 1] to [0, 1] so it combines linearly with the other signals
		scores[i] = (sim + 1) / 2
	}

	return scores, nil
}

// combineScores fuses the per-chunk signals into one explainable score and
// sorts descending. The sort is stable so ties keep original candidate
// order, making output deterministic regardless of how the scoring passes
// were scheduled.
func combineScores(candidates []types.EmbeddedChunk, semantic, keyword []float64, includeMetadata bool) []types.RetrievalResult {
	results := make([]types.RetrievalResult, len(candidates))

	for i := range candidates {
		quality := math.Min(1, float64(candidates[i].Metadata.TokenEstimate)/QualityTokenCeiling)
		combined := SemanticWeight*semantic[i] + KeywordWeight*keyword[i] + QualityWeight*quality

		chunk := candidates[i]
		if !includeMetadata {
			chunk.Metadata = types.ChunkMetadata{}
		}

		results[i] = types.RetrievalResult{
			Chunk: chunk,
			Score: combined,
			ScoreBreakdown: types.ScoreBreakdown{
				Semantic:  semantic[i],
				Keyword:   keyword[i],
				Quality:   quality,
				Recency:   1,
				Diversity: 1,
				Combined:  combined,
			},
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// applyThreshold drops results scoring below minScore. Strict cut, applied
// after combination and before diversity sampling.
func applyThreshold(results []types.RetrievalResult, minScore float64) []types.RetrievalResult {
	kept := results[:0:0]
	for _, r := range results {
		if r.Score >= minScore {
			kept = append(kept, r)
		}
	}
	return kept
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
