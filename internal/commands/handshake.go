package commands

import (
	"context"
	"errors"

	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/semver"
)

// HandshakePayload is the payload of handshake.
type HandshakePayload struct {
	// Protocol is a semver range, e.g. "^1.0.0" or "1". Empty accepts any.
	Protocol string `json:"protocol"`
}

// HandshakeResult is the reply value of handshake.
type HandshakeResult struct {
	Protocol string   `json:"protocol"`
	Commands []string `json:"commands"`
}

func (c *Commands) handshake(_ context.Context, _ bridge.Channel, p HandshakePayload) bridge.Result {
	supported := c.deps.Protocols
	if len(supported) == 0 {
		supported = semver.SupportedProtocols
	}

	version, err := semver.Negotiate(p.Protocol, supported)
	var unsupported *semver.UnsupportedError
	switch {
	case errors.As(err, &unsupported):
		return bridge.Fail(426, "%s", unsupported.Error())
	case err != nil:
		return bridge.Fail(400, "Invalid protocol range %q", p.Protocol)
	}

	var kinds []string
	if c.registry != nil {
		kinds = c.registry.Kinds()
	}
	return bridge.OK(HandshakeResult{Protocol: version, Commands: kinds})
}
