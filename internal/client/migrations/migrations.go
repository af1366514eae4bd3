// Package migrations embeds the goose migrations for the client databases.
package migrations

import "embed"

// Local holds the schema of the on-device SQLite database (dir "local").
//
//go:embed local/*.sql
var Local embed.FS

// Profiles holds the schema of the Postgres profile store (dir "profiles").
//
//go:embed profiles/*.sql
var Profiles embed.FS

const (
	LocalDir    = "local"
	ProfilesDir = "profiles"
)
