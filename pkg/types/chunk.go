package types

import (
	"errors"
	"time"
)

// ChunkType represents the kind of content a chunk holds
type ChunkType string

const (
	ChunkFunction     ChunkType = "function"
	ChunkClass        ChunkType = "class"
	ChunkComponent    ChunkType = "component"
	ChunkInterface    ChunkType = "interface"
	ChunkImportBlock  ChunkType = "import_block"
	ChunkCommentBlock ChunkType = "comment_block"
	ChunkParagraph    ChunkType = "paragraph"
	ChunkCodeBlock    ChunkType = "code_block"
	ChunkSection      ChunkType = "section"
	ChunkGeneric      ChunkType = "generic"
)

// ChunkMetadata holds structural metadata extracted at chunking time
type ChunkMetadata struct {
	Name          string   `json:"name,omitempty"`
	Signature     string   `json:"signature,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
	Exports       []string `json:"exports,omitempty"`
	LineStart     int      `json:"lineStart"`
	LineEnd       int      `json:"lineEnd"`
	TokenEstimate int      `json:"tokenEstimate"`
}

// Chunk is a bounded, addressable excerpt of a document and the unit of
// retrieval. Content is always the exact substring
// document.Content[StartOffset:EndOffset].
type Chunk struct {
	ID          string        `json:"id"`
	DocumentID  string        `json:"documentId"`
	Content     string        `json:"content"`
	StartOffset int           `json:"startOffset"`
	EndOffset   int           `json:"endOffset"`
	Type        ChunkType     `json:"type"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// EmbeddedChunk is a chunk plus its embedding vector. Embeddings are
// immutable once produced; re-embedding creates a new record.
type EmbeddedChunk struct {
	Chunk
	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embeddingModel,omitempty"`
	EmbeddedAt     time.Time `json:"embeddedAt"`
}

// HasEmbedding reports whether the chunk carries an embedding vector
func (c *EmbeddedChunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// ValidateChunkType checks if the chunk type is one of the known values
func (c *Chunk) ValidateChunkType() error {
	switch c.Type {
	case ChunkFunction, ChunkClass, ChunkComponent, ChunkInterface,
		ChunkImportBlock, ChunkCommentBlock, ChunkParagraph,
		ChunkCodeBlock, ChunkSection, ChunkGeneric:
		return nil
	default:
		return errors.New("invalid chunk type")
	}
}

// Validate performs comprehensive validation of the chunk
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}

	if c.DocumentID == "" {
		return errors.New("document ID is required")
	}

	if c.StartOffset < 0 || c.EndOffset < c.StartOffset {
		return errors.New("chunk offsets out of order")
	}

	if c.EndOffset-c.StartOffset != len(c.Content) {
		return errors.New("chunk offsets do not match content length")
	}

	return c.ValidateChunkType()
}

// EstimateTokens computes the chunk token estimate using the chars/4
// heuristic and stores it on the metadata
func (c *Chunk) EstimateTokens() int {
	c.Metadata.TokenEstimate = EstimateTokens(c.Content)
	return c.Metadata.TokenEstimate
}

// EstimateTokens estimates the token count of text. Average English word
// is ~4 chars and code tokens are similar.
func EstimateTokens(text string) int {
	return len(text) / 4
}
