package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

const settingColumns = `namespace, scope, key, value, revision, created, modified, modified_by`

// Repository provides database access for settings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSetting finds a setting by namespace, scope and key. Returns nil, nil when absent.
func (r *Repository) GetSetting(ctx context.Context, namespace, scope, key string) (*Setting, error) {
	slog.Debug(fmt.Sprintf("%s - GetSetting ns=%s scope=%q key=%s", repoLogPrefix, namespace, scope, key))

	row := r.pool.QueryRow(ctx,
		`SELECT `+settingColumns+`
		 FROM settings
		 WHERE namespace = $1 AND scope = $2 AND key = $3
		 LIMIT 1`, namespace, scope, key)

	return scanSetting(row)
}

// UpsertSettingParams holds parameters for UpsertSetting.
type UpsertSettingParams struct {
	Namespace string
	Scope     string
	Key       string
	Value     json.RawMessage
	UserID    string
}

// UpsertSetting creates or updates a setting, bumping its revision on update.
func (r *Repository) UpsertSetting(ctx context.Context, params UpsertSettingParams) (*Setting, error) {
	if params.Key == "" {
		return nil, fmt.Errorf("%s - setting key is required", repoLogPrefix)
	}
	if !json.Valid(params.Value) {
		return nil, fmt.Errorf("%s - value for %s is not valid JSON", repoLogPrefix, params.Key)
	}
	slog.Info(fmt.Sprintf("%s - UpsertSetting ns=%s scope=%q key=%s", repoLogPrefix, params.Namespace, params.Scope, params.Key))

	now := time.Now().UTC()

	row := r.pool.QueryRow(ctx,
		`INSERT INTO settings (namespace, scope, key, value, modified_by, created, modified)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $6)
		 ON CONFLICT (namespace, scope, key) DO UPDATE SET
		   value = EXCLUDED.value,
		   revision = settings.revision + 1,
		   modified = $6,
		   modified_by = $5
		 RETURNING `+settingColumns,
		params.Namespace, params.Scope, params.Key, string(params.Value), params.UserID, now)

	return scanSetting(row)
}

// ListSettingsParams holds parameters for ListSettings.
type ListSettingsParams struct {
	Namespace string
	// Scope filters to one scope when non-nil; nil lists every scope.
	Scope *string
	Page  int
	Limit int
}

// ListSettings lists settings in a namespace, ordered by scope then key.
func (r *Repository) ListSettings(ctx context.Context, params ListSettingsParams) ([]Setting, int, error) {
	limit, offset := pageWindow(params.Page, params.Limit)

	query := `SELECT ` + settingColumns + ` FROM settings WHERE namespace = $1`
	countQuery := `SELECT COUNT(*)::int FROM settings WHERE namespace = $1`
	args := []any{params.Namespace}
	if params.Scope != nil {
		query += ` AND scope = $2`
		countQuery += ` AND scope = $2`
		args = append(args, *params.Scope)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s - count settings failed: %w", repoLogPrefix, err)
	}

	query += fmt.Sprintf(` ORDER BY scope, key LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s - list settings failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s - iterate settings failed: %w", repoLogPrefix, err)
	}
	return out, total, nil
}

// DeleteSetting removes one setting. Returns false when nothing was deleted.
func (r *Repository) DeleteSetting(ctx context.Context, namespace, scope, key string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM settings WHERE namespace = $1 AND scope = $2 AND key = $3`,
		namespace, scope, key)
	if err != nil {
		return false, fmt.Errorf("%s - delete setting failed: %w", repoLogPrefix, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping verifies database connectivity (health checks).
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanSetting(row pgx.Row) (*Setting, error) {
	var s Setting
	var value []byte
	err := row.Scan(&s.Namespace, &s.Scope, &s.Key, &value, &s.Revision, &s.Created, &s.Modified, &s.ModifiedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan setting failed: %w", repoLogPrefix, err)
	}
	s.Value = json.RawMessage(value)
	return &s, nil
}

func pageWindow(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return limit, (page - 1) * limit
}
