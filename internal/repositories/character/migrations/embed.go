// Package migrations embeds the character store schema.
package migrations

import "embed"

// FS holds the SQL migrations applied by the character store.
//
//go:embed *.sql
var FS embed.FS
