package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/host"
)

const hostLogPrefix = "commands:host"

// ConfirmPayload is the payload of confirm.
type ConfirmPayload struct {
	Message string `json:"message"`
	// Event overrides the kind of the push carrying the answer.
	Event string `json:"event,omitempty"`
}

// ConfirmPending is the immediate reply value of confirm.
type ConfirmPending struct {
	Pending bool   `json:"pending"`
	ID      string `json:"id"`
}

// ConfirmResult is the payload of the push carrying the user's answer.
type ConfirmResult struct {
	ID       string `json:"id"`
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// OpenURLPayload is the payload of openUrl.
type OpenURLPayload struct {
	URL string `json:"url"`
}

// confirm replies at once and pushes the user's answer when the prompt is settled.
func (c *Commands) confirm(ctx context.Context, ch bridge.Channel, p ConfirmPayload) bridge.Result {
	if c.deps.Prompter == nil {
		return bridge.Fail(501, "Confirmation prompts are not available")
	}
	if p.Message == "" {
		return bridge.Fail(400, "confirm requires a message")
	}
	event := p.Event
	if event == "" {
		event = KindConfirmResult
	}
	id := uuid.NewString()

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		res := ConfirmResult{ID: id}
		accepted, err := c.deps.Prompter.Confirm(ctx, p.Message)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - prompt %s failed: %v", hostLogPrefix, id, err))
			res.Error = err.Error()
		}
		res.Accepted = accepted && err == nil
		c.push(ctx, ch, event, res)
	}()

	return bridge.OK(ConfirmPending{Pending: true, ID: id})
}

func (c *Commands) openURL(ctx context.Context, _ bridge.Channel, p OpenURLPayload) bridge.Result {
	if c.deps.Opener == nil {
		return bridge.Fail(501, "Opening URLs is not available")
	}
	u, err := url.Parse(p.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return bridge.Fail(400, "Invalid URL %q", p.URL)
	}

	hctx, cancel := c.hostContext(ctx)
	defer cancel()
	if err := c.deps.Opener.OpenURL(hctx, u.String()); err != nil {
		slog.Error(fmt.Sprintf("%s - open %s: %v", hostLogPrefix, u, err))
		if errors.Is(err, host.ErrNoHost) {
			return bridge.Fail(503, "No host is available to open %s", u)
		}
		return bridge.Fail(502, "Could not open %s", u)
	}
	return bridge.OK(nil)
}
