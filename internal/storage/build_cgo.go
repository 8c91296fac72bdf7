//go:build mattn
// +build mattn

package storage

// This file is compiled when building with CGO and the mattn tag.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "mattn" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)

// connParams are applied by the driver to every pooled connection.
const connParams = "_busy_timeout=5000&_foreign_keys=on"

// dsn appends connection parameters to a plain file path. The driver strips
// everything after '?' before opening the file.
func dsn(path string) string {
	return path + "?" + connParams
}
