//go:build purego
// +build purego

package storage

// This file is compiled with the purego tag.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// The modernc driver is a pure Go translation of SQLite: no C compiler
// required and trivial cross-compilation, at some speed cost.

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
