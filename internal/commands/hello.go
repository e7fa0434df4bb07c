package commands

import (
	"context"
	"encoding/json"

	"github.com/morezero/webview-bridge/pkg/bridge"
)

// HelloPayload is the payload of hello, hello2 and hello3.
type HelloPayload struct {
	Data json.RawMessage `json:"data"`
}

// hello shows the payload's data and pushes the current time back under the same kind.
func (c *Commands) hello(kind string) bridge.Handler {
	return bridge.Typed(func(ctx context.Context, ch bridge.Channel, p HelloPayload) bridge.Result {
		c.notifyInfo(ctx, helloText(p.Data))
		c.push(ctx, ch, kind, c.now().UnixMilli())
		return bridge.OK(nil)
	})
}

// helloText renders data for display: strings unquoted, anything else as JSON.
func helloText(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}
