// Package migrations embeds SQL migration files into the binary.
//
// The conversion catalog schema and its seed rows ship inside the
// executable, so a fresh install needs no SQL files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/landarea-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
