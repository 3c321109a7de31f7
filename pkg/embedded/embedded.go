// Package embedded provides assets compiled into the binary.
package embedded

import (
	"embed"
)

// Schemas holds the SQLite schema files applied by database.Migrate.
//
//go:embed schemas/*.sql
var Schemas embed.FS
