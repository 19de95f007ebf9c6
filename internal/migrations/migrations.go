// Package migrations embeds the SQL schema files applied by cmd/migrate_apply.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
