// Package embedder turns text into vector embeddings for semantic
// retrieval.
//
// Two providers are available: an OpenAI API client with retrying and an
// offline deterministic provider used when no API key is configured. Both
// sit behind the Embedder interface and share an LRU cache keyed by
// provider, model, and content hash, so repeated ingestion of the same
// chunk never pays for a second API call.
//
// The factory (NewFromEnv) selects a provider from the environment and
// always has a working fallback; the server never fails to start because
// an embedding API key is missing.
package embedder
