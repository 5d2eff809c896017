// Package migrations holds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS contains every migration file, compiled into the binary
//
//go:embed *.sql
var FS embed.FS
