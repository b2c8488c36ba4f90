// Package migrations holds the embedded goose migrations for the database
// schema.
package migrations

import "embed"

// Migrations is the embedded filesystem containing the SQL migration files.
//
//go:embed *.sql
var Migrations embed.FS
