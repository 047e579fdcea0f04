// Package migrations embeds the SQL schema of the evaluation audit store.
package migrations

import "embed"

// FS holds NNN_name.up.sql files applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
