// Package server orchestrates all components: COMMS client, settings store,
// command router, websocket and COMMS transports, HTTP health.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/webview-bridge/internal/commands"
	"github.com/morezero/webview-bridge/internal/config"
	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/commsutil"
	"github.com/morezero/webview-bridge/pkg/db"
	"github.com/morezero/webview-bridge/pkg/events"
	"github.com/morezero/webview-bridge/pkg/host"
	"github.com/morezero/webview-bridge/pkg/settings"
	"github.com/morezero/webview-bridge/pkg/transport/natsbridge"
	"github.com/morezero/webview-bridge/pkg/transport/wsbridge"
	"github.com/morezero/webview-bridge/pkg/workspace"
)

const logPrefix = "server:server"

// KindNotification is the push kind carrying notifications to websocket clients.
const KindNotification = "notification"

// pinger checks a dependency's connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// routerView is the read-only router surface used by the HTTP handlers.
type routerView interface {
	State() bridge.State
	InFlight() int
	Kinds() []string
}

// clientCounter reports connected websocket clients.
type clientCounter interface {
	Count() int
}

// Server is the webview-bridge orchestrator.
type Server struct {
	cfg        *config.Config
	session    string
	store      string
	started    time.Time
	router     routerView
	clients    clientCounter
	wsHandler  http.Handler
	db         pinger
	commsUp    func() bool
	httpServer *http.Server
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))

	slog.Info(fmt.Sprintf("%s - Starting webview-bridge", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := cfg.Session
	if session == "" {
		session = uuid.NewString()
	}
	s := &Server{cfg: cfg, session: session, started: time.Now()}

	// Step 1: Connect to COMMS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	s.commsUp = nc.IsConnected

	// Step 2: Settings store (Postgres when configured, memory otherwise)
	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		nc.Close()
		return err
	}
	if pool != nil {
		s.db = db.NewRepository(pool)
		s.store = "postgres"
	} else {
		s.store = "memory"
	}

	// Step 3: Commands, router and transports
	p, err := newPipeline(ctx, cfg, nc, store, session)
	if err != nil {
		closeAll(nc, pool)
		return err
	}
	s.router = p.router
	s.clients = p.ws
	s.wsHandler = p.ws

	// Step 4: Start HTTP server
	addr := cfg.ListenAddr()
	s.httpServer = &http.Server{Addr: addr, Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, addr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - webview-bridge is ready (session %s, store %s)", logPrefix, session, s.store))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown: stop intake, let in-flight handlers reply, then release resources.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HandlerTimeout)
	defer shutdownCancel()
	s.httpServer.Shutdown(shutdownCtx)
	p.shutdown(cancel)
	closeAll(nc, pool)

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// pipeline is the assembled bridge: command set, router and both transports.
type pipeline struct {
	cmds   *commands.Commands
	router *bridge.Router
	ws     *wsbridge.Server
	sub    *comms.Subscription
	once   sync.Once
}

// newPipeline wires notifications, commands and the router, then starts the
// websocket server and the COMMS subscription for session.
func newPipeline(ctx context.Context, cfg *config.Config, nc *comms.Conn, store settings.Store, session string) (*pipeline, error) {
	p := &pipeline{}

	// Notifications reach COMMS subscribers and every websocket client.
	commsPublisher := events.NewCommsPublisher(nc, &events.CommsPublisherOpts{Subject: cfg.NotifySubject})
	wsPublisher := events.NewCallbackPublisher(func(ctx context.Context, event *events.NotificationEvent) error {
		if p.ws == nil {
			return nil
		}
		env, err := bridge.Push(KindNotification, event)
		if err != nil {
			return err
		}
		return p.ws.Broadcast(ctx, env)
	})
	notifier := events.NewNotifier(events.MultiPublisher{commsPublisher, wsPublisher}, cfg.Namespace, session)

	root := cfg.WorkspaceRoot
	if root == "" {
		root, _ = os.Getwd()
	}
	hostSurface := host.NewCommsHost(nc, host.CommsHostOpts{Session: session, PromptTimeout: cfg.PromptTimeout})
	p.cmds = commands.New(commands.Deps{
		Store:          store,
		Namespace:      cfg.Namespace,
		Folders:        &workspace.FileSource{Path: cfg.WorkspaceFile, Fallback: workspace.DefaultFolders(root)},
		Resolver:       workspace.NewResolver(workspace.OSDirLister{}, notifier),
		Notifier:       notifier,
		Prompter:       hostSurface,
		Opener:         hostSurface,
		Protocols:      cfg.Protocols,
		HandlerTimeout: cfg.HandlerTimeout,
	})
	reg := bridge.NewRegistry()
	if err := p.cmds.Register(reg); err != nil {
		return nil, fmt.Errorf("%s - failed to register commands: %w", logPrefix, err)
	}
	p.router = bridge.NewRouter(reg, bridge.RouterOptions{Notifier: notifier, Logger: slog.Default()})

	// The websocket server exists before the subscription delivers anything.
	p.ws = wsbridge.NewServer(ctx, p.router, wsbridge.Options{})
	sub, err := natsbridge.Serve(ctx, nc, session, p.router)
	if err != nil {
		p.ws.Close()
		return nil, err
	}
	p.sub = sub
	slog.Info(fmt.Sprintf("%s - Serving %d commands on %s", logPrefix, len(p.router.Kinds()), commsutil.BuildInboundSubject(session)))
	return p, nil
}

// shutdown stops intake, lets in-flight handlers reply, then cancels the
// dispatch context so pending prompts settle before clients are dropped.
// Websocket read loops outlive the HTTP server, so the router is closed
// before Wait; once it returns no handler can start a confirmation either.
func (p *pipeline) shutdown(cancel context.CancelFunc) {
	p.once.Do(func() {
		p.sub.Unsubscribe()
		p.router.Close()
		p.router.Wait()
		cancel()
		p.cmds.Wait()
		p.ws.Close()
	})
}

// openStore builds the settings store. With DATABASE_URL set it connects,
// optionally migrates and seeds, and returns the pool for health checks.
func openStore(ctx context.Context, cfg *config.Config) (settings.Store, *pgxpool.Pool, error) {
	if !cfg.UsesDatabase() {
		slog.Info(fmt.Sprintf("%s - DATABASE_URL not set, settings are kept in memory", logPrefix))
		return settings.NewMemoryStore(), nil, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}

	if cfg.RunMigrations {
		migrations, err := db.LoadMigrations(cfg.MigrationPath)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
		if cfg.SeedFile != "" {
			if err := db.SeedSettings(ctx, pool, cfg.Namespace, cfg.SeedFile); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("%s - failed to seed settings: %w", logPrefix, err)
			}
		}
	}

	return settings.NewPostgresStore(db.NewRepository(pool), cfg.COMMSName), pool, nil
}

func closeAll(nc *comms.Conn, pool *pgxpool.Pool) {
	if nc != nil {
		nc.Drain()
	}
	if pool != nil {
		pool.Close()
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
