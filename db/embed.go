// Package db carries the goose migrations so binaries and tests do not
// depend on the working directory.
package db

import "embed"

// MigrationsDir is the directory of Migrations that goose reads from.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var Migrations embed.FS
