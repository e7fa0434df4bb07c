// Package natsbridge carries bridge envelopes over COMMS subjects.
//
// A UI surface publishes envelopes on bridge.<session>.in; replies and pushes
// are published on bridge.<session>.out. An inbound message sent as a COMMS
// request additionally receives its correlated reply on the request's inbox.
package natsbridge

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/commsutil"
)

const logPrefix = "natsbridge:natsbridge"

// Dispatcher receives decoded inbound envelopes. *bridge.Router satisfies it.
type Dispatcher interface {
	OnMessage(ctx context.Context, ch bridge.Channel, env bridge.Envelope)
}

// Channel publishes envelopes on a session's outbound subject.
type Channel struct {
	nc      *comms.Conn
	subject string
}

// NewChannel creates the outbound Channel of session.
func NewChannel(nc *comms.Conn, session string) *Channel {
	return &Channel{nc: nc, subject: commsutil.BuildOutboundSubject(session)}
}

// Subject returns the outbound subject.
func (c *Channel) Subject() string {
	return c.subject
}

// Send implements bridge.Channel.
func (c *Channel) Send(_ context.Context, env bridge.Envelope) error {
	data, err := commsutil.EncodePayload(env)
	if err != nil {
		return fmt.Errorf("%s - encode %s: %w", logPrefix, env.Kind, err)
	}
	if err := c.nc.Publish(c.subject, data); err != nil {
		return fmt.Errorf("%s - publish to %s: %w", logPrefix, c.subject, err)
	}
	return nil
}

// requestChannel answers the correlated reply on the request inbox and sends
// everything else on the session channel.
type requestChannel struct {
	msg      *comms.Msg
	fallback *Channel
}

func (c *requestChannel) Send(ctx context.Context, env bridge.Envelope) error {
	if !env.IsReply() {
		return c.fallback.Send(ctx, env)
	}
	data, err := commsutil.EncodePayload(env)
	if err != nil {
		return fmt.Errorf("%s - encode reply: %w", logPrefix, err)
	}
	if err := c.msg.Respond(data); err != nil {
		return fmt.Errorf("%s - respond: %w", logPrefix, err)
	}
	return nil
}

// Serve subscribes to session's inbound subject and hands every envelope to d.
// ctx is passed to every dispatch. The caller unsubscribes on shutdown.
func Serve(ctx context.Context, nc *comms.Conn, session string, d Dispatcher) (*comms.Subscription, error) {
	subject := commsutil.BuildInboundSubject(session)
	out := NewChannel(nc, session)

	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var env bridge.Envelope
		if err := commsutil.DecodePayload(msg.Data, &env); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode envelope on %s: %v", logPrefix, subject, err))
			return
		}
		if env.Kind == "" {
			slog.Warn(fmt.Sprintf("%s - dropping envelope without kind on %s", logPrefix, subject))
			return
		}

		var ch bridge.Channel = out
		if msg.Reply != "" {
			ch = &requestChannel{msg: msg, fallback: out}
		}
		d.OnMessage(ctx, ch, env)
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s, publishing on %s", logPrefix, subject, out.Subject()))
	return sub, nil
}
