// Package migrations embeds the projection schema for SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
