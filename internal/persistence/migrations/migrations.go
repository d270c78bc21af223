// Package migrations embeds the goose SQL migrations for the news schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
