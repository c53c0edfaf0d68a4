package indexer

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/devctx/knowctx/internal/chunker"
	"github.com/devctx/knowctx/internal/embedder"
	"github.com/devctx/knowctx/internal/storage"
	"github.com/devctx/knowctx/pkg/types"
)

// Indexer coordinates the ingestion pipeline: chunk -> embed -> store
type Indexer struct {
	chunker  *chunker.Chunker
	embedder embedder.Embedder
	store    storage.Store

	workers int
}

// Config tunes how a single ingestion runs
type Config struct {
	Workers   int // Concurrent embedding batches (default: runtime.NumCPU())
	BatchSize int // Texts per embedding call (default: 32)
}

// Statistics describes what one ingestion did
type Statistics struct {
	DocumentID     string
	ChunksCreated  int
	ChunksEmbedded int
	Skipped        bool // Document content unchanged, nothing re-indexed
	Duration       time.Duration
	ErrorMessages  []string
}

const defaultBatchSize = 32

// New creates an Indexer
func New(store storage.Store, emb embedder.Embedder) *Indexer {
	return &Indexer{
		chunker:  chunker.New(chunker.DefaultConfig()),
		embedder: emb,
		store:    store,
		workers:  runtime.NumCPU(),
	}
}

// IngestDocument chunks a document, embeds the chunks, and stores
// everything atomically. Re-ingesting an unchanged document is a no-op;
// re-ingesting changed content replaces the document's chunks. Embedding
// failures are not fatal: affected chunks are stored without vectors and
// participate in keyword scoring only.
func (idx *Indexer) IngestDocument(ctx context.Context, doc *types.Document, config *Config) (*Statistics, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	workers, batchSize := effectiveConfig(config)

	start := time.Now()
	stats := &Statistics{DocumentID: doc.ID}

	existing, err := idx.store.GetDocument(ctx, doc.ID)
	if err != nil && err != storage.ErrNotFound {
		return nil, fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil && existing.Content == doc.Content {
		stats.Skipped = true
		stats.Duration = time.Since(start)
		return stats, nil
	}

	chunks, err := idx.chunker.ChunkDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}

	// Embed outside the transaction; SQLite has a single writer and
	// provider calls can take seconds
	embeddings := idx.embedChunks(ctx, chunks, workers, batchSize, stats)

	tx, err := idx.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpsertDocument(ctx, doc); err != nil {
		return nil, err
	}
	// Replace semantics: old chunks (and their embeddings, via cascade)
	// go away with the content that produced them
	if err := tx.DeleteChunksByDocument(ctx, doc.ID); err != nil {
		return nil, err
	}

	for i, chunk := range chunks {
		if err := tx.UpsertChunk(ctx, chunk); err != nil {
			return nil, fmt.Errorf("failed to store chunk %s: %w", chunk.ID, err)
		}
		stats.ChunksCreated++

		emb := embeddings[i]
		if emb == nil {
			continue
		}
		rec := &storage.EmbeddingRecord{
			ChunkID:  chunk.ID,
			Vector:   emb.Vector,
			Provider: emb.Provider,
			Model:    emb.Model,
		}
		if err := tx.UpsertEmbedding(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to store embedding for chunk %s: %w", chunk.ID, err)
		}
		stats.ChunksEmbedded++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ingestion: %w", err)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// embedChunks generates embeddings in concurrent batches. The returned
// slice aligns with chunks; a nil entry means that batch failed.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []*types.Chunk, workers, batchSize int, stats *Statistics) []*embedder.Embedding {
	embeddings := make([]*embedder.Embedding, len(chunks))
	if idx.embedder == nil {
		return embeddings
	}

	var mu sync.Mutex // Protects stats.ErrorMessages

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for startIdx := 0; startIdx < len(chunks); startIdx += batchSize {
		endIdx := min(startIdx+batchSize, len(chunks))
		batch := chunks[startIdx:endIdx]
		offset := startIdx

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Content
			}

			resp, err := idx.embedder.GenerateBatch(gctx, embedder.BatchEmbeddingRequest{Texts: texts})
			if err != nil {
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages,
					fmt.Sprintf("embedding batch at chunk %d: %v", offset, err))
				mu.Unlock()
				log.Printf("embedding batch failed, chunks stored without vectors: %v", err)
				return nil
			}

			for i, emb := range resp.Embeddings {
				embeddings[offset+i] = emb
			}
			return nil
		})
	}

	// Workers only report, never fail the group
	_ = g.Wait()
	return embeddings
}

// RemoveDocument deletes a document with its chunks and embeddings
func (idx *Indexer) RemoveDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("document ID is required")
	}
	return idx.store.DeleteDocument(ctx, documentID)
}

func effectiveConfig(config *Config) (workers, batchSize int) {
	workers = runtime.NumCPU()
	batchSize = defaultBatchSize
	if config != nil {
		if config.Workers > 0 {
			workers = config.Workers
		}
		if config.BatchSize > 0 {
			batchSize = config.BatchSize
		}
	}
	if batchSize > embedder.MaxBatchSize {
		batchSize = embedder.MaxBatchSize
	}
	return workers, batchSize
}
