// Package indexer runs the ingestion pipeline for knowledge documents.
//
// IngestDocument chunks the document, embeds the chunks in concurrent
// batches, and commits document, chunks, and embeddings in a single
// transaction, so a reader never observes a half-ingested document.
// Unchanged content is detected and skipped; changed content replaces
// the document's chunks wholesale.
//
// Embedding failures degrade rather than abort: chunks whose batch
// failed are stored without vectors and are still reachable through
// keyword scoring until a later re-ingestion embeds them.
package indexer
