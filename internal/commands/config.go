package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/settings"
)

const configLogPrefix = "commands:config"

// ConfigUpdatedMessage is shown after a successful setConfig.
const ConfigUpdatedMessage = "Configuration updated"

// GetConfigPayload is the payload of getConfig.
type GetConfigPayload struct {
	Key  string `json:"key"`
	File string `json:"file,omitempty"`
}

// SetConfigPayload is the payload of setConfig.
type SetConfigPayload struct {
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value"`
	Global bool            `json:"global,omitempty"`
	File   string          `json:"file,omitempty"`
}

func (c *Commands) getConfig(ctx context.Context, _ bridge.Channel, p GetConfigPayload) bridge.Result {
	if p.Key == "" {
		return bridge.Fail(400, "getConfig requires a key")
	}
	hctx, cancel := c.hostContext(ctx)
	defer cancel()

	value, ok, err := c.deps.Store.Get(hctx, c.scopeFor(p.File), p.Key)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - get %s: %v", configLogPrefix, p.Key, err))
		return bridge.Fail(500, "Failed to read configuration %s", p.Key)
	}
	if !ok {
		return bridge.OK(nil)
	}
	return bridge.OK(value)
}

func (c *Commands) setConfig(ctx context.Context, _ bridge.Channel, p SetConfigPayload) bridge.Result {
	if p.Key == "" {
		return bridge.Fail(400, "setConfig requires a key")
	}
	hctx, cancel := c.hostContext(ctx)
	defer cancel()

	if err := c.deps.Store.Set(hctx, c.scopeFor(p.File), p.Key, p.Value, p.Global); err != nil {
		slog.Error(fmt.Sprintf("%s - set %s: %v", configLogPrefix, p.Key, err))
		return bridge.Fail(500, "Failed to update configuration %s", p.Key)
	}
	c.notifyInfo(ctx, ConfigUpdatedMessage)
	return bridge.OK(nil)
}

// scopeFor returns the project scope of file, or the global scope when file is
// empty or belongs to no project.
func (c *Commands) scopeFor(file string) settings.Scope {
	scope := settings.Scope{Namespace: c.deps.Namespace}
	if file == "" {
		return scope
	}
	folders, err := c.deps.Folders.Folders()
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - workspace folders unavailable: %v", configLogPrefix, err))
		return scope
	}
	root, err := c.deps.Resolver.Lookup(file, folders)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - %s has no project root, using global scope", configLogPrefix, file))
		return scope
	}
	scope.Root = root
	return scope
}
