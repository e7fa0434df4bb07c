// Package main is the entrypoint for the webview-bridge host (binary name "bridge").
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/webview-bridge/internal/config"
	"github.com/morezero/webview-bridge/internal/server"
	"github.com/morezero/webview-bridge/pkg/db"
)

const usage = `Usage: bridge [command]
       bridge serve              Start the bridge (COMMS, websocket, HTTP health).
       bridge migrate up          Run database migrations.
       bridge migrate down        Roll back one migration (drops the settings table).
       bridge migrate status      Show migration status.
       bridge ensure-db [name]    Create database if missing (default name: bridge_test). Uses DATABASE_URL host/user.
       bridge clear [namespace]   Delete stored settings for a namespace (default BRIDGE_NAMESPACE; --all truncates).
       bridge seed [file]         Seed settings from a JSON file (default BRIDGE_SEED_FILE).
       bridge settings list [scope]          List stored settings (all scopes, or one; "global" for user settings).
       bridge settings delete <key> [scope]  Delete one setting (default scope: global).

Commands:
  serve            (default) Start the webview bridge.
  migrate up       Run database migrations only.
  migrate down     Roll back last migration.
  migrate status   Show current migration status.
  ensure-db [name] Create database (e.g. bridge_test) on same host as DATABASE_URL; then run tests with that URL.
  clear [ns]       Remove settings; schema preserved.
  seed [file]      Upsert global and per-project settings from a seed file.
  settings         Inspect or remove stored settings in BRIDGE_NAMESPACE.

Environment: DATABASE_URL (optional for serve; settings stay in memory without it), COMMS_URL,
BRIDGE_SESSION, BRIDGE_HTTP_ADDR (default :8080), MIGRATION_PATH, BRIDGE_SEED_FILE. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("bridge migrate: require subcommand (up, down, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("bridge migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("bridge migrate status: %v", err)
			}
		case "down":
			if err := runMigrateDown(); err != nil {
				log.Fatalf("bridge migrate down: %v", err)
			}
		default:
			log.Fatalf("bridge migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		return
	case "clear":
		namespace := ""
		if len(args) > 1 {
			namespace = args[1]
		}
		if err := runClear(namespace); err != nil {
			log.Fatalf("bridge clear: %v", err)
		}
		return
	case "seed":
		seedFile := ""
		if len(args) > 1 {
			seedFile = args[1]
		}
		if err := runSeed(seedFile); err != nil {
			log.Fatalf("bridge seed: %v", err)
		}
		return
	case "settings":
		if len(args) < 2 {
			log.Fatalf("bridge settings: require subcommand (list, delete)")
		}
		switch args[1] {
		case "list":
			scope := ""
			if len(args) > 2 {
				scope = args[2]
			}
			if err := runSettingsList(scope); err != nil {
				log.Fatalf("bridge settings list: %v", err)
			}
		case "delete":
			if len(args) < 3 || args[2] == "" {
				log.Fatalf("bridge settings delete: require a key")
			}
			scope := "global"
			if len(args) > 3 {
				scope = args[3]
			}
			if err := runSettingsDelete(args[2], scope); err != nil {
				log.Fatalf("bridge settings delete: %v", err)
			}
		default:
			log.Fatalf("bridge settings: unknown subcommand %q (use list, delete)", args[1])
		}
		return
	case "ensure-db":
		dbName := "bridge_test"
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("bridge ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("bridge: %v", err)
	}
}

// withPool loads DB config, opens a pool, and runs fn with it.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func runMigrateUp() error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		migrations, err := db.LoadMigrations(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
}

func runMigrateStatus() error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
	})
}

func runMigrateDown() error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		return db.MigrationDown(ctx, pool, cfg.MigrationPath)
	})
}

func runClear(namespace string) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		ns := clearNamespace(namespace, cfg.Namespace)
		if err := db.ClearSettings(ctx, pool, ns); err != nil {
			return fmt.Errorf("clear settings: %w", err)
		}
		return nil
	})
}

// clearNamespace maps the clear argument to a namespace; "" from --all clears everything.
func clearNamespace(arg, configured string) string {
	switch arg {
	case "--all":
		return ""
	case "":
		return configured
	default:
		return arg
	}
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	targetURL, err := databaseURLFor(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	created, err := db.EnsureDatabase(context.Background(), targetURL)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Database %q created.\n", dbName)
	} else {
		fmt.Printf("Database %q already exists.\n", dbName)
	}
	return nil
}

// databaseURLFor swaps the database name in base; the query (e.g. sslmode) is kept.
func databaseURLFor(base, dbName string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}

func runSeed(seedFileOverride string) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		seedPath := seedFileOverride
		if seedPath == "" {
			seedPath = cfg.SeedFile
		}
		if seedPath == "" {
			return fmt.Errorf("no seed file: pass a path or set BRIDGE_SEED_FILE")
		}
		if err := db.SeedSettings(ctx, pool, cfg.Namespace, seedPath); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		return nil
	})
}

// scopeArg maps a CLI scope argument to a stored scope: "global" is the empty scope.
func scopeArg(arg string) string {
	if arg == "global" {
		return db.GlobalScope
	}
	return arg
}

func runSettingsList(scope string) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		repo := db.NewRepository(pool)
		params := db.ListSettingsParams{Namespace: cfg.Namespace, Limit: 500}
		if scope != "" {
			s := scopeArg(scope)
			params.Scope = &s
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCOPE\tKEY\tVALUE\tREVISION\tMODIFIED")
		total := 0
		for page := 1; ; page++ {
			params.Page = page
			rows, n, err := repo.ListSettings(ctx, params)
			if err != nil {
				return err
			}
			total = n
			for _, s := range rows {
				sc := s.Scope
				if s.IsGlobal() {
					sc = "global"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", sc, s.Key, s.Value, s.Revision, s.Modified.Format("2006-01-02 15:04:05"))
			}
			if len(rows) == 0 || page*params.Limit >= n {
				break
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d settings in namespace %q\n", total, cfg.Namespace)
		return nil
	})
}

func runSettingsDelete(key, scope string) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		deleted, err := db.NewRepository(pool).DeleteSetting(ctx, cfg.Namespace, scopeArg(scope), key)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no setting %q in scope %q", key, scope)
		}
		fmt.Printf("Deleted %s (%s).\n", key, scope)
		return nil
	})
}
