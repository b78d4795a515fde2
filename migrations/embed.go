// Package migrations embeds the goose SQL migrations shipped with the API.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
