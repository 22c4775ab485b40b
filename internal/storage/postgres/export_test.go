package postgres

import (
	"io/fs"

	"github.com/mcoot/leaderboard/internal/storage/postgres/migrations"
)

func migrationFiles() ([]string, error) {
	return fs.Glob(migrations.Migrations, "*.sql")
}
