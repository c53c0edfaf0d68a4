// Package bm25 implements Okapi BM25 keyword scoring over an in-memory
// candidate set.
//
// Unlike index-backed BM25 (SQLite FTS5 and friends), corpus statistics
// here are recomputed per call from the documents passed in. That is
// deliberate: the retrieval engine filters its candidate set per query, so
// average document length and inverse document frequency must reflect the
// surviving population, not a global index. The recomputation also keeps
// the scorer a pure function with no cross-call state.
//
// Scores are normalized to [0, 1] against the theoretical per-query
// ceiling so they combine linearly with the other retrieval signals.
package bm25
