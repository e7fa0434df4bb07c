package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const registryLogPrefix = "bridge:registry"

// ErrRegistrySealed is returned when registering after the registry was handed to a Router.
var ErrRegistrySealed = errors.New("bridge:registry - registry is sealed")

// Handler performs one command. It may send pushes on ch at any time.
type Handler func(ctx context.Context, ch Channel, env Envelope) Result

// DuplicateHandlerError is returned when a kind is registered twice.
type DuplicateHandlerError struct {
	Kind string
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("%s - handler already registered for kind %q", registryLogPrefix, e.Kind)
}

// Registry maps command kinds to handlers. It is populated at startup and
// read without locking once sealed.
type Registry struct {
	handlers map[string]Handler
	sealed   bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds kind to h.
func (r *Registry) Register(kind string, h Handler) error {
	if r.sealed {
		return ErrRegistrySealed
	}
	if kind == "" {
		return fmt.Errorf("%s - empty command kind", registryLogPrefix)
	}
	if kind == KindCallback {
		return fmt.Errorf("%s - kind %q is reserved for replies", registryLogPrefix, kind)
	}
	if h == nil {
		return fmt.Errorf("%s - nil handler for kind %q", registryLogPrefix, kind)
	}
	if _, exists := r.handlers[kind]; exists {
		return &DuplicateHandlerError{Kind: kind}
	}
	r.handlers[kind] = h
	return nil
}

// MustRegister is Register that panics on error, for static wiring.
func (r *Registry) MustRegister(kind string, h Handler) {
	if err := r.Register(kind, h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler bound to kind.
func (r *Registry) Lookup(kind string) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) seal() {
	r.sealed = true
}

// Typed adapts a handler taking a decoded payload of type P.
// A payload that does not decode produces a 400 result.
func Typed[P any](fn func(ctx context.Context, ch Channel, p P) Result) Handler {
	return func(ctx context.Context, ch Channel, env Envelope) Result {
		var p P
		if len(env.Payload) > 0 && string(env.Payload) != "null" {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				return Fail(400, "Invalid payload for %s: %v", env.Kind, err)
			}
		}
		return fn(ctx, ch, p)
	}
}
