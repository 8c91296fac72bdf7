//go:build !mattn
// +build !mattn

package storage

// This file is compiled by default. It uses a pure Go SQLite implementation
// so the backend cross-compiles without a C toolchain.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)

// connParams are applied by the driver to every pooled connection.
const connParams = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// dsn appends connection parameters to a plain file path. The driver strips
// everything after '?' before opening the file.
func dsn(path string) string {
	return path + "?" + connParams
}
