// Package commands implements the bridge's closed command set and registers
// it on a bridge.Registry.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/host"
	"github.com/morezero/webview-bridge/pkg/settings"
	"github.com/morezero/webview-bridge/pkg/workspace"
)

const logPrefix = "commands:commands"

// Command kinds.
const (
	KindGetConfig     = "getConfig"
	KindSetConfig     = "setConfig"
	KindHello         = "hello"
	KindHello2        = "hello2"
	KindHello3        = "hello3"
	KindProjectRoot   = "projectRoot"
	KindHandshake     = "handshake"
	KindConfirm       = "confirm"
	KindOpenURL       = "openUrl"
	KindFindInFile    = "findInFile"
	KindConfirmResult = "confirmResult"
)

// Deps are the host collaborators the commands use. Prompter and Opener may be
// nil, in which case confirm and openUrl reply 501.
type Deps struct {
	Store     settings.Store
	Namespace string
	Folders   workspace.FolderSource
	Resolver  *workspace.Resolver
	Notifier  bridge.Notifier
	Prompter  host.Prompter
	Opener    host.Opener
	// Protocols are the protocol versions offered during handshake.
	Protocols []string
	// HandlerTimeout bounds each command's host I/O. Zero means no bound.
	HandlerTimeout time.Duration
}

// Commands holds the dependencies shared by every handler.
type Commands struct {
	deps     Deps
	registry *bridge.Registry
	now      func() time.Time
	// background tracks work that outlives a handler (pending confirmations).
	background sync.WaitGroup
}

// New creates the command set.
func New(deps Deps) *Commands {
	if deps.Resolver == nil {
		deps.Resolver = workspace.NewResolver(nil, deps.Notifier)
	}
	if deps.Folders == nil {
		deps.Folders = workspace.StaticFolders{}
	}
	return &Commands{deps: deps, now: time.Now}
}

// Register binds every command kind on reg.
func (c *Commands) Register(reg *bridge.Registry) error {
	c.registry = reg
	handlers := []struct {
		kind string
		h    bridge.Handler
	}{
		{KindGetConfig, bridge.Typed(c.getConfig)},
		{KindSetConfig, bridge.Typed(c.setConfig)},
		{KindHello, c.hello(KindHello)},
		{KindHello2, c.hello(KindHello2)},
		{KindHello3, c.hello(KindHello3)},
		{KindProjectRoot, c.projectRoot},
		{KindHandshake, bridge.Typed(c.handshake)},
		{KindConfirm, bridge.Typed(c.confirm)},
		{KindOpenURL, bridge.Typed(c.openURL)},
		{KindFindInFile, bridge.Typed(c.findInFile)},
	}
	for _, h := range handlers {
		if err := reg.Register(h.kind, h.h); err != nil {
			return fmt.Errorf("%s - register %s: %w", logPrefix, h.kind, err)
		}
	}
	slog.Info(fmt.Sprintf("%s - Registered %d commands", logPrefix, len(handlers)))
	return nil
}

// Wait blocks until background work started by handlers has finished.
func (c *Commands) Wait() {
	c.background.Wait()
}

// hostContext bounds a handler's host I/O by HandlerTimeout.
func (c *Commands) hostContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.deps.HandlerTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.deps.HandlerTimeout)
}

func (c *Commands) notifyInfo(ctx context.Context, text string) {
	if c.deps.Notifier != nil {
		c.deps.Notifier.ShowInfo(ctx, text)
	}
}

func (c *Commands) push(ctx context.Context, ch bridge.Channel, kind string, payload any) {
	env, err := bridge.Push(kind, payload)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - encode %s push: %v", logPrefix, kind, err))
		return
	}
	if err := ch.Send(ctx, env); err != nil {
		slog.Error(fmt.Sprintf("%s - send %s push: %v", logPrefix, kind, err))
	}
}
