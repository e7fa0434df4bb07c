package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

const logPrefix = "bridge:router"

// State is the router's dispatch state.
type State int

const (
	// Idle means no handler is in flight.
	Idle State = iota
	// Dispatching means at least one handler is executing.
	Dispatching
)

func (s State) String() string {
	if s == Dispatching {
		return "dispatching"
	}
	return "idle"
}

// UnknownCommandError describes an envelope whose kind has no handler.
type UnknownCommandError struct {
	Kind string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("No handler named %s", e.Kind)
}

// RouterOptions configures a Router. Nil fields are allowed.
type RouterOptions struct {
	Notifier Notifier
	Logger   *slog.Logger
}

// Router dispatches inbound envelopes to registered handlers.
type Router struct {
	registry   *Registry
	correlator *Correlator
	notifier   Notifier
	log        *slog.Logger
	inflight   atomic.Int64
	wg         sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRouter creates a Router over reg and seals reg against further registration.
func NewRouter(reg *Registry, opts RouterOptions) *Router {
	reg.seal()
	lg := opts.Logger
	if lg == nil {
		lg = slog.Default()
	}
	return &Router{
		registry:   reg,
		correlator: NewCorrelator(opts.Notifier),
		notifier:   opts.Notifier,
		log:        lg,
	}
}

// OnMessage dispatches env. It returns as soon as the handler has been started;
// the reply, if any, is sent on ch when the handler completes. After Close no
// handler is started.
func (r *Router) OnMessage(ctx context.Context, ch Channel, env Envelope) {
	r.log.Debug(fmt.Sprintf("%s - kind=%s correlationId=%s", logPrefix, env.Kind, env.CorrelationID))

	h, ok := r.registry.Lookup(env.Kind)
	if !ok {
		err := &UnknownCommandError{Kind: env.Kind}
		r.log.Warn(fmt.Sprintf("%s - %v", logPrefix, err))
		if r.notifier != nil {
			r.notifier.ShowError(ctx, err.Error())
		}
		return
	}

	if !r.begin() {
		r.log.Warn(fmt.Sprintf("%s - router closed, dropping %s (%s)", logPrefix, env.Kind, env.CorrelationID))
		return
	}
	go func() {
		defer r.wg.Done()
		defer r.inflight.Add(-1)
		r.dispatch(ctx, ch, env, h)
	}()
}

// begin registers a handler with Wait unless the router is closed. Holding mu
// keeps wg.Add from racing a Wait that follows Close.
func (r *Router) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.inflight.Add(1)
	r.wg.Add(1)
	return true
}

func (r *Router) dispatch(ctx context.Context, ch Channel, env Envelope, h Handler) {
	res := r.invoke(ctx, ch, env, h)

	reply, ok := r.correlator.Reply(ctx, env, res)
	if !ok {
		return
	}
	if err := ch.Send(ctx, reply); err != nil {
		r.log.Error(fmt.Sprintf("%s - failed to send reply for %s (%s): %v", logPrefix, env.Kind, env.CorrelationID, err))
	}
}

func (r *Router) invoke(ctx context.Context, ch Channel, env Envelope, h Handler) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error(fmt.Sprintf("%s - handler %s panicked: %v", logPrefix, env.Kind, p))
			res = Fail(500, "Command %s failed", env.Kind)
		}
	}()
	return h(ctx, ch, env)
}

// State reports whether any handler is in flight.
func (r *Router) State() State {
	if r.inflight.Load() > 0 {
		return Dispatching
	}
	return Idle
}

// InFlight returns the number of handlers currently executing.
func (r *Router) InFlight() int {
	return int(r.inflight.Load())
}

// Kinds returns the registered command kinds.
func (r *Router) Kinds() []string {
	return r.registry.Kinds()
}

// Close stops the router from starting handlers. Handlers already running
// are unaffected; call Wait to let them finish. Close is idempotent.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Wait blocks until every handler started by OnMessage has returned.
func (r *Router) Wait() {
	r.wg.Wait()
}
