// Package db embeds the SQL migrations applied by the migrate command.
package db

import "embed"

// Migrations holds one goose directory per dialect: migrations/sqlite and
// migrations/postgres.
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var Migrations embed.FS
