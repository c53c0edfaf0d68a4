// Package retriever implements hybrid knowledge retrieval: semantic
// similarity blended with BM25 keyword matching, threshold filtering, and
// Maximal Marginal Relevance diversity sampling.
//
// # Pipeline
//
// Engine.HybridRetrieve runs a fixed sequence:
//
//	filter -> semantic score -> keyword score -> combine+sort -> threshold -> diversify-or-truncate
//
// Each candidate's final score is an explainable weighted fusion:
//
//	combined = 0.6*semantic + 0.3*keyword + 0.1*quality
//
// where semantic is cosine similarity mapped from [-1,1] to [0,1], keyword
// is normalized BM25 over the surviving candidate set, and quality is a
// token-count proxy saturating at 500 tokens. Every result carries its full
// ScoreBreakdown.
//
// # Diversity Sampling (MMR)
//
// When diversityWeight > 0 and more candidates survive the threshold than
// the limit, a greedy Maximal Marginal Relevance pass reselects results:
//
//	mmrScore = candidate.score - diversityWeight * maxSim(candidate, selected)
//
// Similarity here is Jaccard overlap of tokenized term sets, not embedding
// similarity. Five chunks restating the same function signature collapse to
// one representative instead of crowding out everything else.
//
// # Purity and Determinism
//
// The engine is synchronous, CPU-bound, and pure: identical inputs produce
// identical output, ties in combined score break by original candidate
// order, and the wall-clock timer only measures. Service wraps the engine
// with the impure parts: loading candidates from storage, embedding the
// query, and caching responses in an LRU with TTL.
//
// # Errors
//
// A dimensionality mismatch between the query vector and any present chunk
// embedding aborts the call with types.ErrDimensionMismatch. Out-of-range
// options are rejected with types.ValidationError. Missing embeddings,
// queries with no surviving tokens, and empty post-filter candidate sets
// are soft outcomes that resolve to zeros or an empty result list.
package retriever
