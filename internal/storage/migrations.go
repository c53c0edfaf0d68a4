package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CurrentSchemaVersion is the version the latest migration leaves the
// database at
const CurrentSchemaVersion = "1.0.0"

// Migration is a single schema step, applied in semver order
type Migration struct {
	Version string
	Up      string
	Down    string
}

var migrations = []Migration{
	{Version: "1.0.0", Up: migrationV1Up, Down: migrationV1Down},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Documents table
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    source_type TEXT NOT NULL,
    repository TEXT,
    file_path TEXT,
    url TEXT,
    title TEXT,
    language TEXT,
    frameworks TEXT,
    tags TEXT,
    quality TEXT,
    content TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_source_type ON documents(source_type);
CREATE INDEX IF NOT EXISTS idx_documents_repository ON documents(repository);
CREATE INDEX IF NOT EXISTS idx_documents_language ON documents(language);

-- Chunks table
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL,
    content TEXT NOT NULL,
    start_offset INTEGER NOT NULL,
    end_offset INTEGER NOT NULL,
    chunk_type TEXT NOT NULL,
    name TEXT,
    signature TEXT,
    dependencies TEXT,
    exports TEXT,
    line_start INTEGER,
    line_end INTEGER,
    token_estimate INTEGER,
    FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_chunks_type ON chunks(chunk_type);

-- Embeddings table
CREATE TABLE IF NOT EXISTS embeddings (
    chunk_id TEXT PRIMARY KEY,
    vector BLOB NOT NULL,
    dimension INTEGER NOT NULL,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (chunk_id) REFERENCES chunks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_embeddings_provider ON embeddings(provider, model);
`

const migrationV1Down = `
DROP TABLE IF EXISTS embeddings;
DROP TABLE IF EXISTS chunks;
DROP TABLE IF EXISTS documents;
DROP TABLE IF EXISTS schema_version;
`

// appliedVersion reads the newest recorded schema version; a database
// without a schema_version table reports 0.0.0
func appliedVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	zero := semver.MustParse("0.0.0")

	var table string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&table)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, nil
	}
	if err != nil {
		return nil, fmt.Errorf("probing schema_version table: %w", err)
	}

	var raw string
	err = db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || raw == "" {
		return zero, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}

	version, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("recorded schema version %q: %w", raw, err)
	}
	return version, nil
}

// ApplyMigrations brings the database up to CurrentSchemaVersion, running
// each pending migration and its version record inside one transaction.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	current, err := appliedVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		target, err := semver.NewVersion(m.Version)
		if err != nil {
			return fmt.Errorf("migration version %q: %w", m.Version, err)
		}
		if !current.LessThan(target) {
			continue
		}

		if err := runMigrationStep(ctx, db, m.Up,
			"INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("applying migration %s: %w", m.Version, err)
		}
		current = target
	}

	return nil
}

// RollbackMigration undoes the most recently applied migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var version string
	err := db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("no migrations to roll back: %w", err)
	}

	var down string
	for _, m := range migrations {
		if m.Version == version {
			down = m.Down
			break
		}
	}
	if down == "" {
		return fmt.Errorf("migration %s not found", version)
	}

	if err := runMigrationStep(ctx, db, down,
		"DELETE FROM schema_version WHERE version = ?", version); err != nil {
		return fmt.Errorf("rolling back migration %s: %w", version, err)
	}
	return nil
}

// runMigrationStep executes migration SQL and its bookkeeping statement
// atomically
func runMigrationStep(ctx context.Context, db *sql.DB, script, record string, version string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, record, version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
