// Package config provides bridge configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds webview-bridge configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"webview-bridge"`

	// Bridge
	Namespace string `envconfig:"BRIDGE_NAMESPACE" default:"webview-bridge"`
	// Session names the COMMS subjects (bridge.<session>.in/out). Empty = generated at startup.
	Session       string `envconfig:"BRIDGE_SESSION"`
	NotifySubject string `envconfig:"BRIDGE_NOTIFY_SUBJECT"`
	// Protocols offered during handshake, comma-separated. Empty = built-in list.
	Protocols []string `envconfig:"BRIDGE_PROTOCOLS"`

	// Timeouts
	HandlerTimeout time.Duration `envconfig:"BRIDGE_HANDLER_TIMEOUT" default:"10s"`
	PromptTimeout  time.Duration `envconfig:"BRIDGE_PROMPT_TIMEOUT" default:"5m"`

	// Workspace: JSON file with {"rootPath", "folders"}; WorkspaceRoot is used when the file is absent.
	WorkspaceFile string `envconfig:"BRIDGE_WORKSPACE_FILE"`
	WorkspaceRoot string `envconfig:"BRIDGE_WORKSPACE_ROOT"`

	// Database (empty = settings kept in memory)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`
	SeedFile      string `envconfig:"BRIDGE_SEED_FILE"`

	// HTTP endpoint for /ws, /health, /ready (BRIDGE_HTTP_ADDR preferred, e.g. "127.0.0.1:8080")
	HTTPAddr           string        `envconfig:"BRIDGE_HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UsesDatabase reports whether settings are persisted in Postgres.
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// ValidateForServe checks required config when running the bridge server.
func (c *Config) ValidateForServe() error {
	if c.Namespace == "" {
		return fmt.Errorf("%s - BRIDGE_NAMESPACE must not be empty", logPrefix)
	}
	if c.HandlerTimeout <= 0 {
		return fmt.Errorf("%s - BRIDGE_HANDLER_TIMEOUT must be positive", logPrefix)
	}
	if c.PromptTimeout <= 0 {
		return fmt.Errorf("%s - BRIDGE_PROMPT_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.HTTPAddr == "" && (c.HTTPPort <= 0 || c.HTTPPort > 65535) {
		return fmt.Errorf("%s - HTTP_PORT %d is out of range", logPrefix, c.HTTPPort)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear, seed).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
