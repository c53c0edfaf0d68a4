// Package types provides shared type definitions for the knowctx MCP server.
//
// This package defines domain types used across multiple components of
// knowctx, including documents, chunks, embedded chunks, and the retrieval
// request/response contract.
//
// # Core Types
//
// Document represents a unit of ingested developer knowledge (source code,
// markdown notes, architecture documents, decisions, patterns):
//
//	doc := &types.Document{
//	    ID:      uuid.NewString(),
//	    Source:  types.DocumentSource{Type: types.SourceMarkdown, Repository: "payments"},
//	    Content: noteBody,
//	    Metadata: types.DocumentMetadata{
//	        Title:   "Retry policy for webhook delivery",
//	        Quality: types.QualityGold,
//	    },
//	}
//
// Chunk is a bounded excerpt of a document and the unit of retrieval.
// Its content is always the exact substring
// document.Content[StartOffset:EndOffset]. EmbeddedChunk adds the
// fixed-dimensionality vector produced by an embedding model.
//
// # Retrieval Contract
//
// RetrievalQuery, RetrievalOptions, and RetrievalFilters describe a request;
// RetrievalResponse carries the ranked results. Every RetrievalResult
// includes a mandatory ScoreBreakdown explaining the semantic, keyword,
// quality, recency, and diversity components of its final score:
//
//	resp, err := engine.HybridRetrieve(query, chunks, queryVec, opts)
//	for _, r := range resp.Results {
//	    fmt.Printf("%.3f (sem=%.3f kw=%.3f) %s\n",
//	        r.Score, r.ScoreBreakdown.Semantic, r.ScoreBreakdown.Keyword,
//	        r.Chunk.Metadata.Name)
//	}
//
// Scores are normalized to [0, 1], with higher values indicating better
// matches.
//
// # Errors
//
// Fatal retrieval conditions use sentinel errors (ErrDimensionMismatch,
// ErrLookupRequired) or the ValidationError type for out-of-range options.
// Soft conditions (missing embedding, empty query, empty candidate set)
// never error; they resolve to well-defined zero or empty outcomes.
package types
