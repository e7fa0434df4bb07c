// Package bridge routes envelopes arriving from an embedded UI surface to host-side
// command handlers and correlates their results back to the caller.
package bridge

import (
	"context"
	"encoding/json"
)

// KindCallback marks a reply envelope. It can never be registered as a command kind.
const KindCallback = "hostCallback"

// Envelope is one message crossing the host/UI channel.
type Envelope struct {
	Kind          string          `json:"kind"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
}

// ExpectsReply reports whether the sender is waiting for a correlated reply.
func (e Envelope) ExpectsReply() bool {
	return e.CorrelationID != ""
}

// IsReply reports whether the envelope is a correlated reply.
func (e Envelope) IsReply() bool {
	return e.Kind == KindCallback
}

// Push builds an unsolicited host-initiated envelope. Pushes never carry a correlation id.
func Push(kind string, payload any) (Envelope, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, Payload: raw}, nil
}

// Channel is one endpoint of the host/UI channel. Implementations serialize writes.
type Channel interface {
	Send(ctx context.Context, env Envelope) error
}

// ChannelFunc adapts a function to a Channel.
type ChannelFunc func(ctx context.Context, env Envelope) error

// Send calls f.
func (f ChannelFunc) Send(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// Notifier is the user-visible notification surface of the host.
type Notifier interface {
	ShowError(ctx context.Context, text string)
	ShowInfo(ctx context.Context, text string)
}

func marshalPayload(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		return raw, nil
	}
	return json.Marshal(v)
}
