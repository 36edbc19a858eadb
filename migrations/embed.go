// Package migrations embeds the Tunnels SQL migrations and registers them
// with the database package when imported.
package migrations

import (
	"embed"

	"github.com/tunnelz/tunnels/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
