// Package migrations embeds the SQL schema for each supported dialect.
package migrations

import "embed"

// FS holds sqlite/*.up.sql and postgres/*.up.sql.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
