// Package storage persists knowledge documents, chunks, and embeddings
// in SQLite.
//
// The Store interface covers document and chunk CRUD, embedding records,
// and the two bulk loads retrieval runs on: every chunk joined with its
// embedding, and the document metadata projection used by filters.
// Scoring happens entirely in the retrieval layer, so no SQL-side search
// index is involved; the store's job is durable, transactional state.
//
// Two SQLite drivers are supported through build tags. The default build
// uses github.com/mattn/go-sqlite3 (CGO); building with -tags purego uses
// modernc.org/sqlite for environments without a C toolchain. Embedding
// vectors are stored as little-endian float32 blobs.
//
// Schema changes are expressed as semver-ordered migrations applied on
// open; the current version is recorded in the schema_version table.
package storage
