package commands

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/settings"
	"github.com/morezero/webview-bridge/pkg/workspace"
)

type recordingChannel struct {
	mu   sync.Mutex
	sent []bridge.Envelope
}

func (c *recordingChannel) Send(_ context.Context, env bridge.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, env)
	return nil
}

func (c *recordingChannel) byKind(kind string) []bridge.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []bridge.Envelope
	for _, e := range c.sent {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

func (n *recordingNotifier) ShowError(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, text)
}

func (n *recordingNotifier) ShowInfo(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, text)
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors), len(n.infos)
}

type fakePrompter struct {
	answer bool
	err    error
	gate   chan struct{}
}

func (p *fakePrompter) Confirm(ctx context.Context, _ string) (bool, error) {
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return p.answer, p.err
}

type fakeOpener struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (o *fakeOpener) OpenURL(_ context.Context, rawURL string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, rawURL)
	return o.err
}

// harness wires a command set to a router the way the server does.
type harness struct {
	cmds     *Commands
	router   *bridge.Router
	ch       *recordingChannel
	notifier *recordingNotifier
	store    *settings.MemoryStore
}

func newHarness(t *testing.T, deps Deps) *harness {
	t.Helper()
	n := &recordingNotifier{}
	store := settings.NewMemoryStore()
	if deps.Store == nil {
		deps.Store = store
	}
	if deps.Namespace == "" {
		deps.Namespace = "webview-bridge"
	}
	deps.Notifier = n
	deps.Resolver = workspace.NewResolver(nil, n)

	cmds := New(deps)
	cmds.now = func() time.Time { return time.UnixMilli(1700000000000) }
	reg := bridge.NewRegistry()
	if err := cmds.Register(reg); err != nil {
		t.Fatalf("commands:helpers_test - Register: %v", err)
	}
	return &harness{
		cmds:     cmds,
		router:   bridge.NewRouter(reg, bridge.RouterOptions{Notifier: n}),
		ch:       &recordingChannel{},
		notifier: n,
		store:    store,
	}
}

// send dispatches one envelope and waits for its handler.
func (h *harness) send(t *testing.T, kind, correlationID string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("commands:helpers_test - marshal payload: %v", err)
	}
	h.router.OnMessage(context.Background(), h.ch, bridge.Envelope{Kind: kind, Payload: raw, CorrelationID: correlationID})
	h.router.Wait()
}

// reply returns the single reply for correlationID decoded into v.
func (h *harness) reply(t *testing.T, correlationID string, v any) {
	t.Helper()
	var found []bridge.Envelope
	for _, e := range h.ch.byKind(bridge.KindCallback) {
		if e.CorrelationID == correlationID {
			found = append(found, e)
		}
	}
	if len(found) != 1 {
		t.Fatalf("commands:helpers_test - replies for %s = %d, want 1", correlationID, len(found))
	}
	if v != nil {
		if err := json.Unmarshal(found[0].Payload, v); err != nil {
			t.Fatalf("commands:helpers_test - decode reply %s: %v", found[0].Payload, err)
		}
	}
}
