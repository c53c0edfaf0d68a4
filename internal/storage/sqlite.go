package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devctx/knowctx/pkg/types"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	q  querier
}

// querier is the subset of *sql.DB and *sql.Tx the store needs, so every
// operation works identically inside and outside a transaction
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies
// pending migrations
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db, q: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a transaction. The returned Tx exposes the full Store
// API against the transaction.
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{
		SQLiteStore: SQLiteStore{db: s.db, q: tx},
		tx:          tx,
	}, nil
}

type sqliteTx struct {
	SQLiteStore
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// Document operations

func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *types.Document) error {
	frameworks, err := marshalStrings(doc.Metadata.Frameworks)
	if err != nil {
		return err
	}
	tags, err := marshalStrings(doc.Metadata.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	query := `
		INSERT INTO documents (id, source_type, repository, file_path, url, title,
		                       language, frameworks, tags, quality, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_type = excluded.source_type,
			repository = excluded.repository,
			file_path = excluded.file_path,
			url = excluded.url,
			title = excluded.title,
			language = excluded.language,
			frameworks = excluded.frameworks,
			tags = excluded.tags,
			quality = excluded.quality,
			content = excluded.content,
			updated_at = excluded.updated_at
	`
	_, err = s.q.ExecContext(ctx, query,
		doc.ID, string(doc.Source.Type), doc.Source.Repository, doc.Source.FilePath,
		doc.Source.URL, doc.Metadata.Title, doc.Metadata.Language, frameworks, tags,
		string(doc.Metadata.Quality), doc.Content, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

const documentColumns = `id, source_type, repository, file_path, url, title,
       language, frameworks, tags, quality, content, created_at, updated_at`

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*types.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// rowScanner lets scanDocument work for both Row and Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*types.Document, error) {
	var doc types.Document
	var sourceType, quality string
	var repository, filePath, url, title, language sql.NullString
	var frameworks, tags sql.NullString

	err := row.Scan(&doc.ID, &sourceType, &repository, &filePath, &url, &title,
		&language, &frameworks, &tags, &quality, &doc.Content,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	doc.Source.Type = types.SourceType(sourceType)
	doc.Source.Repository = repository.String
	doc.Source.FilePath = filePath.String
	doc.Source.URL = url.String
	doc.Metadata.Title = title.String
	doc.Metadata.Language = language.String
	doc.Metadata.Quality = types.QualityTier(quality)

	if doc.Metadata.Frameworks, err = unmarshalStrings(frameworks); err != nil {
		return nil, err
	}
	if doc.Metadata.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Chunk operations

func (s *SQLiteStore) UpsertChunk(ctx context.Context, chunk *types.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return fmt.Errorf("invalid chunk: %w", err)
	}

	dependencies, err := marshalStrings(chunk.Metadata.Dependencies)
	if err != nil {
		return err
	}
	exports, err := marshalStrings(chunk.Metadata.Exports)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chunks (id, document_id, content, start_offset, end_offset,
		                    chunk_type, name, signature, dependencies, exports,
		                    line_start, line_end, token_estimate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			chunk_type = excluded.chunk_type,
			name = excluded.name,
			signature = excluded.signature,
			dependencies = excluded.dependencies,
			exports = excluded.exports,
			line_start = excluded.line_start,
			line_end = excluded.line_end,
			token_estimate = excluded.token_estimate
	`
	_, err = s.q.ExecContext(ctx, query,
		chunk.ID, chunk.DocumentID, chunk.Content, chunk.StartOffset, chunk.EndOffset,
		string(chunk.Type), chunk.Metadata.Name, chunk.Metadata.Signature,
		dependencies, exports, chunk.Metadata.LineStart, chunk.Metadata.LineEnd,
		chunk.Metadata.TokenEstimate)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

const chunkColumns = `id, document_id, content, start_offset, end_offset, chunk_type,
       name, signature, dependencies, exports, line_start, line_end, token_estimate`

func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (*types.Chunk, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	chunk, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return chunk, nil
}

func (s *SQLiteStore) ListChunksByDocument(ctx context.Context, documentID string) ([]*types.Chunk, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE document_id = ? ORDER BY start_offset`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []*types.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func scanChunk(row rowScanner) (*types.Chunk, error) {
	var chunk types.Chunk
	var chunkType string
	var name, signature, dependencies, exports sql.NullString
	var lineStart, lineEnd, tokenEstimate sql.NullInt64

	err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
		&chunk.StartOffset, &chunk.EndOffset, &chunkType,
		&name, &signature, &dependencies, &exports,
		&lineStart, &lineEnd, &tokenEstimate)
	if err != nil {
		return nil, err
	}

	chunk.Type = types.ChunkType(chunkType)
	chunk.Metadata.Name = name.String
	chunk.Metadata.Signature = signature.String
	chunk.Metadata.LineStart = int(lineStart.Int64)
	chunk.Metadata.LineEnd = int(lineEnd.Int64)
	chunk.Metadata.TokenEstimate = int(tokenEstimate.Int64)

	if chunk.Metadata.Dependencies, err = unmarshalStrings(dependencies); err != nil {
		return nil, err
	}
	if chunk.Metadata.Exports, err = unmarshalStrings(exports); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// Embedding operations

func (s *SQLiteStore) UpsertEmbedding(ctx context.Context, rec *EmbeddingRecord) error {
	if rec.ChunkID == "" {
		return fmt.Errorf("embedding requires a chunk ID")
	}
	if len(rec.Vector) == 0 {
		return fmt.Errorf("embedding vector cannot be empty")
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Dimension = len(rec.Vector)

	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			created_at = excluded.created_at
	`
	_, err := s.q.ExecContext(ctx, query,
		rec.ChunkID, serializeVector(rec.Vector), rec.Dimension,
		rec.Provider, rec.Model, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetEmbedding(ctx context.Context, chunkID string) (*EmbeddingRecord, error) {
	query := `SELECT chunk_id, vector, dimension, provider, model, created_at FROM embeddings WHERE chunk_id = ?`

	var rec EmbeddingRecord
	var blob []byte
	err := s.q.QueryRowContext(ctx, query, chunkID).Scan(
		&rec.ChunkID, &blob, &rec.Dimension, &rec.Provider, &rec.Model, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	rec.Vector = deserializeVector(blob)
	return &rec, nil
}

// Retrieval loads

// LoadEmbeddedChunks returns every stored chunk joined with its embedding.
// Chunks that were never embedded come back with a nil vector; the scoring
// layer decides how to treat them.
func (s *SQLiteStore) LoadEmbeddedChunks(ctx context.Context) ([]types.EmbeddedChunk, error) {
	query := `
		SELECT c.id, c.document_id, c.content, c.start_offset, c.end_offset, c.chunk_type,
		       c.name, c.signature, c.dependencies, c.exports,
		       c.line_start, c.line_end, c.token_estimate,
		       e.vector, e.model, e.created_at
		FROM chunks c
		LEFT JOIN embeddings e ON c.id = e.chunk_id
		ORDER BY c.document_id, c.start_offset
	`
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []types.EmbeddedChunk
	for rows.Next() {
		var ec types.EmbeddedChunk
		var chunkType string
		var name, signature, dependencies, exports sql.NullString
		var lineStart, lineEnd, tokenEstimate sql.NullInt64
		var blob []byte
		var model sql.NullString
		var embeddedAt sql.NullTime

		err := rows.Scan(&ec.ID, &ec.DocumentID, &ec.Content,
			&ec.StartOffset, &ec.EndOffset, &chunkType,
			&name, &signature, &dependencies, &exports,
			&lineStart, &lineEnd, &tokenEstimate,
			&blob, &model, &embeddedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedded chunk: %w", err)
		}

		ec.Type = types.ChunkType(chunkType)
		ec.Metadata.Name = name.String
		ec.Metadata.Signature = signature.String
		ec.Metadata.LineStart = int(lineStart.Int64)
		ec.Metadata.LineEnd = int(lineEnd.Int64)
		ec.Metadata.TokenEstimate = int(tokenEstimate.Int64)
		if ec.Metadata.Dependencies, err = unmarshalStrings(dependencies); err != nil {
			return nil, err
		}
		if ec.Metadata.Exports, err = unmarshalStrings(exports); err != nil {
			return nil, err
		}

		if len(blob) > 0 {
			ec.Embedding = deserializeVector(blob)
			ec.EmbeddingModel = model.String
			if embeddedAt.Valid {
				ec.EmbeddedAt = embeddedAt.Time
			}
		}

		chunks = append(chunks, ec)
	}
	return chunks, rows.Err()
}

// LoadDocumentMetas returns the filterable projection of every document
func (s *SQLiteStore) LoadDocumentMetas(ctx context.Context) (map[string]types.DocumentMeta, error) {
	query := `SELECT id, source_type, repository, language, frameworks, tags, quality FROM documents`
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load document metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	metas := make(map[string]types.DocumentMeta)
	for rows.Next() {
		var id, sourceType, quality string
		var repository, language, frameworks, tags sql.NullString

		if err := rows.Scan(&id, &sourceType, &repository, &language, &frameworks, &tags, &quality); err != nil {
			return nil, fmt.Errorf("failed to scan document metadata: %w", err)
		}

		meta := types.DocumentMeta{
			SourceType: types.SourceType(sourceType),
			Repository: repository.String,
			Language:   language.String,
			Quality:    types.QualityTier(quality),
		}
		if meta.Frameworks, err = unmarshalStrings(frameworks); err != nil {
			return nil, err
		}
		if meta.Tags, err = unmarshalStrings(tags); err != nil {
			return nil, err
		}
		metas[id] = meta
	}
	return metas, rows.Err()
}

// Status operations

func (s *SQLiteStore) Status(ctx context.Context) (*Status, error) {
	status := &Status{
		SchemaVersion: CurrentSchemaVersion,
		BuildMode:     BuildMode,
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM documents`, &status.Documents},
		{`SELECT COUNT(*) FROM chunks`, &status.Chunks},
		{`SELECT COUNT(*) FROM embeddings`, &status.Embeddings},
	}
	for _, c := range counts {
		if err := s.q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}

	var pageCount, pageSize int64
	if err := s.q.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err == nil {
		if err := s.q.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err == nil {
			status.DBSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	return status, nil
}

// JSON helpers for string-slice columns

func marshalStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(column sql.NullString) ([]string, error) {
	if !column.Valid || column.String == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(column.String), &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	return values, nil
}
