// Package migrations embeds the projection schema for PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
