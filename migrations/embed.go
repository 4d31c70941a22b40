// Package migrations embeds the SQL schema of the Gree bridge store.
//
// Importing it for side effects registers the files with the database
// package, so the binary runs migrations without SQL files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
