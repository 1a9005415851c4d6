// Package migrations embeds the tracking store schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
