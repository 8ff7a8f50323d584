package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for goose
	"github.com/pressly/goose/v3"

	"github.com/albapepper/squadsync/internal/config"
	"github.com/albapepper/squadsync/internal/db/migrate"
	"github.com/albapepper/squadsync/internal/db/sqlite"
	"github.com/albapepper/squadsync/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the Postgres schema migrations.
func Migrate(ctx context.Context, databaseURL string, logger *slog.Logger) (int64, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return 0, fmt.Errorf("open sql: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("migrations fs: %w", err)
	}
	return migrate.Up(ctx, goose.DialectPostgres, sqlDB, sub, logger)
}

// Open migrates the configured database and returns the matching store.
// Migrations run before the pool is created because prepared statements
// are registered against the schema on connect.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Backend() {
	case config.BackendPostgres:
		version, err := Migrate(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		pool, err := New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Postgres store ready", "schema_version", version,
			"max_conns", cfg.DBPoolMaxConns)
		return NewStore(pool), nil

	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath(), logger)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite store ready", "path", cfg.SQLitePath())
		return s, nil
	}
	return nil, fmt.Errorf("unsupported database URL scheme")
}
