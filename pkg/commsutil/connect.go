// Package commsutil provides COMMS connection helpers, bridge subject names and the JSON codec.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// Options configures a COMMS connection. Zero values use defaults.
type Options struct {
	URL  string
	Name string
	// Timeout bounds the initial dial.
	Timeout       time.Duration
	ReconnectWait time.Duration
	// MaxReconnects is the number of reconnect attempts; negative retries forever.
	MaxReconnects int
}

func (o Options) withDefaults() Options {
	if o.URL == "" {
		o.URL = comms.DefaultURL
	}
	if o.Name == "" {
		o.Name = "webview-bridge"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.MaxReconnects == 0 {
		o.MaxReconnects = 60
	}
	return o
}

// Connect dials url as name with default options.
func Connect(url, name string) (*comms.Conn, error) {
	return ConnectWith(Options{URL: url, Name: name})
}

// ConnectWith dials COMMS and logs connection state changes.
func ConnectWith(opts Options) (*comms.Conn, error) {
	opts = opts.withDefaults()
	slog.Info(fmt.Sprintf("%s - Connecting to COMMS at %s as %s", logPrefix, opts.URL, opts.Name))

	nc, err := comms.Connect(opts.URL,
		comms.Name(opts.Name),
		comms.Timeout(opts.Timeout),
		comms.ReconnectWait(opts.ReconnectWait),
		comms.MaxReconnects(opts.MaxReconnects),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			if err != nil {
				slog.Warn(fmt.Sprintf("%s - COMMS disconnected: %v", logPrefix, err))
			}
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(*comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS connection closed", logPrefix))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS at %s: %w", logPrefix, opts.URL, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to COMMS at %s", logPrefix, nc.ConnectedUrl()))
	return nc, nil
}
