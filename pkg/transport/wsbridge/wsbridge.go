// Package wsbridge carries bridge envelopes over websocket connections, one
// bridge.Channel per connection.
package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/morezero/webview-bridge/pkg/bridge"
)

const logPrefix = "wsbridge:wsbridge"

// ErrClosed is returned by Send after the connection has gone away.
var ErrClosed = errors.New("websocket connection closed")

// Dispatcher receives decoded inbound envelopes. *bridge.Router satisfies it.
type Dispatcher interface {
	OnMessage(ctx context.Context, ch bridge.Channel, env bridge.Envelope)
}

// Options configures a Server. Zero values use defaults.
type Options struct {
	ReadLimit    int64
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	SendBuffer   int
	// CheckOrigin filters upgrade requests; nil accepts every origin.
	CheckOrigin func(r *http.Request) bool
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 512 * 1024
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	return o
}

// Server upgrades HTTP requests and dispatches each connection's envelopes.
type Server struct {
	ctx      context.Context
	d        Dispatcher
	opts     Options
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

// NewServer creates a Server. ctx is passed to every dispatch and bounds the
// lifetime of all connections.
func NewServer(ctx context.Context, d Dispatcher, opts Options) *Server {
	opts = opts.withDefaults()
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Server{
		ctx:   ctx,
		d:     d,
		opts:  opts,
		conns: make(map[*Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - upgrade failed: %v", logPrefix, err))
		return
	}

	c := &Conn{
		id:     uuid.NewString(),
		ws:     ws,
		send:   make(chan []byte, s.opts.SendBuffer),
		done:   make(chan struct{}),
		server: s,
	}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	slog.Info(fmt.Sprintf("%s - connection %s opened (%d active)", logPrefix, c.id, s.Count()))

	go c.writePump()
	c.readPump()
}

// Count returns the number of open connections.
func (s *Server) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Broadcast sends env to every open connection. It returns the first send error.
func (s *Server) Broadcast(ctx context.Context, env bridge.Envelope) error {
	s.mu.RLock()
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	var first error
	for _, c := range conns {
		if err := c.Send(ctx, env); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every open connection.
func (s *Server) Close() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.conns {
		c.close()
	}
}

func (s *Server) remove(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// Conn is one websocket connection. It implements bridge.Channel; writes are
// serialized through a single writer goroutine.
type Conn struct {
	id     string
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	server *Server
}

// Send implements bridge.Channel.
func (c *Conn) Send(ctx context.Context, env bridge.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%s - encode %s: %w", logPrefix, env.Kind, err)
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.server.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	wait := c.server.opts.WriteWait
	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(wait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-c.server.ctx.Done():
			c.close()

		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(wait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Warn(fmt.Sprintf("%s - write to %s failed: %v", logPrefix, c.id, err))
				c.close()
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(wait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *Conn) readPump() {
	defer func() {
		c.server.remove(c)
		c.close()
		slog.Info(fmt.Sprintf("%s - connection %s closed (%d active)", logPrefix, c.id, c.server.Count()))
	}()

	pongWait := c.server.opts.PongWait
	c.ws.SetReadLimit(c.server.opts.ReadLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn(fmt.Sprintf("%s - read from %s failed: %v", logPrefix, c.id, err))
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(pongWait))

		var env bridge.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode envelope from %s: %v", logPrefix, c.id, err))
			continue
		}
		if env.Kind == "" {
			slog.Warn(fmt.Sprintf("%s - dropping envelope without kind from %s", logPrefix, c.id))
			continue
		}
		c.server.d.OnMessage(c.server.ctx, c, env)
	}
}
