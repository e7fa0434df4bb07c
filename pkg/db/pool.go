// Package db persists bridge settings in Postgres via pgx: pooling, migrations, and the settings repository.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

const (
	maxConns          = 8
	minConns          = 1
	healthCheckPeriod = 30 * time.Second
	applicationName   = "webview-bridge"
)

// NewPool opens a settings pool and pings it before returning.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.HealthCheckPeriod = healthCheckPeriod
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	slog.Info(fmt.Sprintf("%s - Connecting to %s/%s", logPrefix, cfg.ConnConfig.Host, cfg.ConnConfig.Database))
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping %s: %w", logPrefix, cfg.ConnConfig.Host, err)
	}
	return pool, nil
}

// settingsTableExists reports whether the settings schema has been applied.
func settingsTableExists(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `SELECT to_regclass('public.settings') IS NOT NULL`).Scan(&exists)
	return exists, err
}

// RunMigrations applies migrations in order, each in its own transaction.
// Migration SQL must be idempotent (CREATE ... IF NOT EXISTS); there is no
// applied-version table.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) error {
	slog.Info(fmt.Sprintf("%s - Running %d migrations", logPrefix, len(migrations)))

	for _, m := range migrations {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("%s - begin %s: %w", logPrefix, m.Name, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("%s - migration %s failed: %w", logPrefix, m.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("%s - commit %s: %w", logPrefix, m.Name, err)
		}
		slog.Debug(fmt.Sprintf("%s - Applied %s", logPrefix, m.Name))
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete", logPrefix))
	return nil
}

// MigrationStatus reports whether the settings schema is present and lists the migration files.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	const statusLogPrefix = "db:MigrationStatus"

	exists, err := settingsTableExists(ctx, pool)
	if err != nil {
		return fmt.Errorf("%s - failed to check schema: %w", statusLogPrefix, err)
	}

	migrations, err := LoadMigrations(migrationPath)
	if err != nil {
		return fmt.Errorf("%s - load migration list: %w", statusLogPrefix, err)
	}

	state := "not applied (run 'bridge migrate up')"
	if exists {
		state = "applied"
	}
	fmt.Printf("Migration status: %s\n", state)
	for _, name := range migrationNames(migrations) {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

// MigrationDown rolls back the schema created by 001_settings.sql. Stored settings are lost.
func MigrationDown(ctx context.Context, pool *pgxpool.Pool, _ string) error {
	slog.Info(fmt.Sprintf("%s - Rolling back settings schema", logPrefix))
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS settings`); err != nil {
		return fmt.Errorf("%s - rollback failed: %w", logPrefix, err)
	}
	fmt.Println("Migration down: settings table dropped.")
	return nil
}
