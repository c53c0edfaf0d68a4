//go:build !purego
// +build !purego

package storage

// This file is compiled for default (CGO) builds.
//
// Build command:
//   CGO_ENABLED=1 go build ./...
//
// The mattn driver links the C SQLite library and is the faster option
// for production deployments.

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
