// Package migrations bundles schema migration files at compile time so the
// report service deploys as a single binary with no external file layout.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
