package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/webview-bridge/pkg/db"
)

const postgresLogPrefix = "settings:postgres"

// repository is the part of db.Repository the store needs.
type repository interface {
	GetSetting(ctx context.Context, namespace, scope, key string) (*db.Setting, error)
	UpsertSetting(ctx context.Context, params db.UpsertSettingParams) (*db.Setting, error)
}

// PostgresStore is a Store backed by the settings table.
type PostgresStore struct {
	repo   repository
	userID string
}

// NewPostgresStore creates a PostgresStore. userID is recorded as modified_by on writes.
func NewPostgresStore(repo repository, userID string) *PostgresStore {
	return &PostgresStore{repo: repo, userID: userID}
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, scope Scope, key string) (json.RawMessage, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	if !scope.IsGlobal() {
		row, err := s.repo.GetSetting(ctx, scope.Namespace, scope.Root, key)
		if err != nil {
			return nil, false, fmt.Errorf("%s - get %s: %w", postgresLogPrefix, key, err)
		}
		if row != nil {
			return row.Value, true, nil
		}
	}
	row, err := s.repo.GetSetting(ctx, scope.Namespace, db.GlobalScope, key)
	if err != nil {
		return nil, false, fmt.Errorf("%s - get %s: %w", postgresLogPrefix, key, err)
	}
	if row == nil {
		return nil, false, nil
	}
	return row.Value, true, nil
}

// Set implements Store.
func (s *PostgresStore) Set(ctx context.Context, scope Scope, key string, value json.RawMessage, global bool) error {
	if key == "" {
		return ErrEmptyKey
	}
	value = normalize(value)
	t := target(scope, global)

	cur, err := s.repo.GetSetting(ctx, t.Namespace, t.Root, key)
	if err != nil {
		return fmt.Errorf("%s - read %s before write: %w", postgresLogPrefix, key, err)
	}
	if cur != nil && JSONEqual(cur.Value, value) {
		slog.Debug(fmt.Sprintf("%s - %s unchanged, skipping write", postgresLogPrefix, key))
		return nil
	}

	_, err = s.repo.UpsertSetting(ctx, db.UpsertSettingParams{
		Namespace: t.Namespace,
		Scope:     t.Root,
		Key:       key,
		Value:     value,
		UserID:    s.userID,
	})
	if err != nil {
		return fmt.Errorf("%s - write %s: %w", postgresLogPrefix, key, err)
	}
	return nil
}
