package bridge

import (
	"context"
	"sync"
)

// recordingChannel captures every envelope sent on it.
type recordingChannel struct {
	mu   sync.Mutex
	sent []Envelope
}

func (c *recordingChannel) Send(_ context.Context, env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, env)
	return nil
}

func (c *recordingChannel) envelopes() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *recordingChannel) replies() []Envelope {
	var out []Envelope
	for _, e := range c.envelopes() {
		if e.IsReply() {
			out = append(out, e)
		}
	}
	return out
}

// recordingNotifier captures notifications.
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

func (n *recordingNotifier) errorTexts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.errors))
	copy(out, n.errors)
	return out
}
