package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearSettings removes stored settings. An empty namespace truncates the whole
// table; otherwise only that namespace's rows are deleted. Schema is preserved.
func ClearSettings(ctx context.Context, pool *pgxpool.Pool, namespace string) error {
	if namespace == "" {
		slog.Info(fmt.Sprintf("%s - Clearing all settings", clearLogPrefix))
		if _, err := pool.Exec(ctx, `TRUNCATE TABLE settings`); err != nil {
			return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
		}
		return nil
	}

	slog.Info(fmt.Sprintf("%s - Clearing settings in namespace %s", clearLogPrefix, namespace))
	tag, err := pool.Exec(ctx, `DELETE FROM settings WHERE namespace = $1`, namespace)
	if err != nil {
		return fmt.Errorf("%s - delete failed: %w", clearLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Removed %d settings", clearLogPrefix, tag.RowsAffected()))
	return nil
}
