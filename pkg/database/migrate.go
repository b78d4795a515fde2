package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/vnvodich/tutor-api/pkg/config"
)

// Migrate applies pending goose migrations. When fsys is nil the files are
// read from cfg.MigrationsDir on disk; otherwise dir is resolved inside fsys.
func Migrate(ctx context.Context, db *sqlx.DB, cfg config.DatabaseConfig, fsys fs.FS) (int64, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	if cfg.MigrationTable != "" {
		goose.SetTableName(cfg.MigrationTable)
	}

	dir := cfg.MigrationsDir
	if fsys != nil {
		goose.SetBaseFS(fsys)
		defer goose.SetBaseFS(nil)
		dir = "."
	}
	if dir == "" {
		dir = "migrations"
	}

	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("get migration version: %w", err)
	}
	return version, nil
}
