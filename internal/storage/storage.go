package storage

import (
	"context"
	"errors"
	"time"

	"github.com/devctx/knowctx/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// Store persists documents, their chunks, and chunk embeddings
type Store interface {
	// Document operations
	UpsertDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, id string) (*types.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context) ([]*types.Document, error)

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *types.Chunk) error
	GetChunk(ctx context.Context, id string) (*types.Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID string) ([]*types.Chunk, error)
	DeleteChunksByDocument(ctx context.Context, documentID string) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, rec *EmbeddingRecord) error
	GetEmbedding(ctx context.Context, chunkID string) (*EmbeddingRecord, error)

	// Retrieval loads. LoadEmbeddedChunks returns every chunk joined with
	// its embedding when one exists; LoadDocumentMetas returns the
	// document projection used by retrieval filters.
	LoadEmbeddedChunks(ctx context.Context) ([]types.EmbeddedChunk, error)
	LoadDocumentMetas(ctx context.Context) (map[string]types.DocumentMeta, error)

	// Status operations
	Status(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a transactional Store. Changes are invisible to other callers
// until Commit.
type Tx interface {
	Commit() error
	Rollback() error
	Store
}

// EmbeddingRecord is a stored embedding for one chunk
type EmbeddingRecord struct {
	ChunkID   string
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Status summarizes what the store currently holds
type Status struct {
	Documents     int
	Chunks        int
	Embeddings    int
	DBSizeMB      float64
	SchemaVersion string
	BuildMode     string
}
