// Package migrations embeds the SQL schema applied by cmd/migrate and by the
// API server when AUTO_MIGRATE is set.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
