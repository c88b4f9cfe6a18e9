// Package migrations embeds SQL migration files for the identity store schema.
package migrations

import "embed"

// FS holds one migration directory per SQL dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
