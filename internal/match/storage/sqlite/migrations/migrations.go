// Package migrations embeds the SQL migrations for the match SQLite store.
package migrations

import "embed"

// FS holds the embedded migration files, applied in lexicographic order.
//
//go:embed *.sql
var FS embed.FS
