package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

const handlersLogPrefix = "server:handlers"

// HealthChecks reports per-dependency health.
type HealthChecks struct {
	COMMS    bool `json:"comms"`
	Database bool `json:"database"`
}

// HealthOutput is the /health response body.
type HealthOutput struct {
	Status    string       `json:"status"`
	Checks    HealthChecks `json:"checks"`
	Store     string       `json:"store"`
	Session   string       `json:"session"`
	Router    string       `json:"router"`
	InFlight  int          `json:"inFlight"`
	Clients   int          `json:"clients"`
	Timestamp string       `json:"timestamp"`
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	mux.HandleFunc("/commands", s.handleCommands())
	if s.wsHandler != nil {
		mux.Handle("/ws", s.wsHandler)
	}
	return mux
}

// health checks COMMS and, when a database is configured, the pool.
// Without a database the check is reported as passing.
func (s *Server) health(ctx context.Context) *HealthOutput {
	out := &HealthOutput{
		Store:     s.store,
		Session:   s.session,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.commsUp != nil {
		out.Checks.COMMS = s.commsUp()
	}
	if s.db == nil {
		out.Checks.Database = true
	} else if err := s.db.Ping(ctx); err != nil {
		slog.Warn(fmt.Sprintf("%s - database ping failed: %v", handlersLogPrefix, err))
	} else {
		out.Checks.Database = true
	}
	if s.router != nil {
		out.Router = s.router.State().String()
		out.InFlight = s.router.InFlight()
	}
	if s.clients != nil {
		out.Clients = s.clients.Count()
	}

	out.Status = "healthy"
	if !out.Checks.COMMS || !out.Checks.Database {
		out.Status = "unhealthy"
	}
	return out
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		h := s.health(ctx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	}
}

func (s *Server) handleCommands() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		kinds := []string{}
		if s.router != nil {
			kinds = s.router.Kinds()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"commands": kinds})
	}
}

// homePageTemplate is the HTML for the bridge status page.
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Webview Bridge</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    h1, h2 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>Webview Bridge</h1>

  <section>
    <h2>Status</h2>
    <p>Overall: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    <table>
      <tr><th>Session</th><td>{{.Health.Session}}</td></tr>
      <tr><th>Settings store</th><td>{{.Health.Store}}</td></tr>
      <tr><th>COMMS</th><td>{{if .Health.Checks.COMMS}}connected{{else}}disconnected{{end}}</td></tr>
      <tr><th>Database</th><td>{{if .Health.Checks.Database}}ok{{else}}unreachable{{end}}</td></tr>
      <tr><th>Router</th><td>{{.Health.Router}} ({{.Health.InFlight}} in flight)</td></tr>
      <tr><th>Websocket clients</th><td>{{.Health.Clients}}</td></tr>
    </table>
  </section>

  <section>
    <h2>Commands</h2>
    {{if not .Commands}}
    <p>No commands registered.</p>
    {{else}}
    <table>
      <tr><th>Kind</th></tr>
      {{range .Commands}}<tr><td>{{.}}</td></tr>
      {{end}}
    </table>
    {{end}}
  </section>

  <p class="meta">Up since {{.Started}}. Last checked {{.Health.Timestamp}}.</p>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Health   *HealthOutput
	Commands []string
	Started  string
}

// handleHome returns an HTTP handler for the status page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		data := homeData{Health: s.health(ctx), Started: s.started.UTC().Format(time.RFC3339)}
		if s.router != nil {
			data.Commands = s.router.Kinds()
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", handlersLogPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
