// Package migrations embeds the goose SQL migrations for Atrium's schema.
package migrations

import "embed"

// Migrations is the embedded migration set, applied at startup via goose.
//
//go:embed *.sql
var Migrations embed.FS
