package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

const seedLogPrefix = "db:seed"

// SeedUserID is recorded as modified_by for seeded settings.
const SeedUserID = "seed"

// SeedFile is the on-disk shape of a settings seed:
//
//	{"global": {"theme": "dark"}, "projects": {"/work/app": {"lint": true}}}
type SeedFile struct {
	Global   map[string]json.RawMessage            `json:"global"`
	Projects map[string]map[string]json.RawMessage `json:"projects"`
}

// SeedEntry is one setting to write.
type SeedEntry struct {
	Scope string
	Key   string
	Value json.RawMessage
}

// LoadSeedFile reads and flattens a seed file into entries ordered by scope then key.
// Relative project paths are resolved against the seed file's directory.
func LoadSeedFile(path string) ([]SeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read %s: %w", seedLogPrefix, path, err)
	}
	var f SeedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s - failed to parse %s: %w", seedLogPrefix, path, err)
	}

	var out []SeedEntry
	for key, value := range f.Global {
		out = append(out, SeedEntry{Scope: GlobalScope, Key: key, Value: value})
	}
	base := filepath.Dir(path)
	for project, values := range f.Projects {
		scope := project
		if !filepath.IsAbs(scope) {
			scope = filepath.Join(base, scope)
		}
		scope = filepath.Clean(scope)
		for key, value := range values {
			out = append(out, SeedEntry{Scope: scope, Key: key, Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// SeedSettings loads the seed file and upserts every entry into namespace in one transaction.
func SeedSettings(ctx context.Context, pool *pgxpool.Pool, namespace, seedFilePath string) error {
	slog.Info(fmt.Sprintf("%s - seeding %s from %s", seedLogPrefix, namespace, seedFilePath))

	entries, err := LoadSeedFile(seedFilePath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		slog.Info(fmt.Sprintf("%s - no settings to seed", seedLogPrefix))
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin tx: %w", seedLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO settings (namespace, scope, key, value, modified_by)
			 VALUES ($1, $2, $3, $4::jsonb, $5)
			 ON CONFLICT (namespace, scope, key) DO UPDATE SET
			   value = EXCLUDED.value,
			   revision = settings.revision + 1,
			   modified = NOW(),
			   modified_by = EXCLUDED.modified_by`,
			namespace, e.Scope, e.Key, string(e.Value), SeedUserID)
		if err != nil {
			return fmt.Errorf("%s - upsert %s (scope %q): %w", seedLogPrefix, e.Key, e.Scope, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s - commit: %w", seedLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - seeded %d settings", seedLogPrefix, len(entries)))
	return nil
}
