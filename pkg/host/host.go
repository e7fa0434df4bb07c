// Package host talks to the editor host's interactive surfaces (confirmation
// prompts and the external browser) over COMMS request/reply.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/webview-bridge/pkg/commsutil"
)

const logPrefix = "host:host"

// ErrNoHost is returned when nothing is listening on the host subject.
var ErrNoHost = errors.New("no host surface is listening")

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Opener opens a URL in the user's browser.
type Opener interface {
	OpenURL(ctx context.Context, rawURL string) error
}

// PromptRequest is the COMMS payload of a confirmation prompt.
type PromptRequest struct {
	ID      string `json:"id"`
	Session string `json:"session,omitempty"`
	Message string `json:"message"`
}

// PromptResponse is the host's answer to a PromptRequest.
type PromptResponse struct {
	ID       string `json:"id"`
	Accepted bool   `json:"accepted"`
}

// OpenURLRequest is the COMMS payload asking the host to open a URL.
type OpenURLRequest struct {
	ID      string `json:"id"`
	Session string `json:"session,omitempty"`
	URL     string `json:"url"`
}

// Ack is the host's acknowledgement of an OpenURLRequest.
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CommsHostOpts configures CommsHost. Zero values use defaults.
type CommsHostOpts struct {
	Session        string
	PromptSubject  string
	OpenURLSubject string
	// PromptTimeout bounds how long a confirmation waits for the user.
	PromptTimeout time.Duration
	// OpenTimeout bounds the open-url acknowledgement.
	OpenTimeout time.Duration
}

// CommsHost implements Prompter and Opener over COMMS request/reply.
type CommsHost struct {
	nc   *comms.Conn
	opts CommsHostOpts
}

// NewCommsHost creates a CommsHost.
func NewCommsHost(nc *comms.Conn, opts CommsHostOpts) *CommsHost {
	if opts.PromptSubject == "" {
		opts.PromptSubject = commsutil.SubjectPrompt
	}
	if opts.OpenURLSubject == "" {
		opts.OpenURLSubject = commsutil.SubjectOpenURL
	}
	if opts.PromptTimeout <= 0 {
		opts.PromptTimeout = 5 * time.Minute
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 5 * time.Second
	}
	return &CommsHost{nc: nc, opts: opts}
}

// Confirm sends a prompt and waits for the user's answer.
func (h *CommsHost) Confirm(ctx context.Context, message string) (bool, error) {
	req := PromptRequest{ID: uuid.NewString(), Session: h.opts.Session, Message: message}
	var resp PromptResponse
	if err := h.request(ctx, h.opts.PromptSubject, h.opts.PromptTimeout, req, &resp); err != nil {
		return false, err
	}
	if resp.ID != "" && resp.ID != req.ID {
		return false, fmt.Errorf("%s - prompt reply id %s does not match request %s", logPrefix, resp.ID, req.ID)
	}
	slog.Debug(fmt.Sprintf("%s - prompt %s answered accepted=%v", logPrefix, req.ID, resp.Accepted))
	return resp.Accepted, nil
}

// OpenURL asks the host to open rawURL and waits for its acknowledgement.
func (h *CommsHost) OpenURL(ctx context.Context, rawURL string) error {
	req := OpenURLRequest{ID: uuid.NewString(), Session: h.opts.Session, URL: rawURL}
	var ack Ack
	if err := h.request(ctx, h.opts.OpenURLSubject, h.opts.OpenTimeout, req, &ack); err != nil {
		return err
	}
	if !ack.OK {
		msg := ack.Error
		if msg == "" {
			msg = "host refused to open the URL"
		}
		return fmt.Errorf("%s - %s", logPrefix, msg)
	}
	return nil
}

func (h *CommsHost) request(ctx context.Context, subject string, timeout time.Duration, req, resp any) error {
	data, err := commsutil.EncodePayload(req)
	if err != nil {
		return fmt.Errorf("%s - encode request: %w", logPrefix, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := h.nc.RequestWithContext(reqCtx, subject, data)
	if err != nil {
		if errors.Is(err, comms.ErrNoResponders) {
			return fmt.Errorf("%s - %s: %w", logPrefix, subject, ErrNoHost)
		}
		return fmt.Errorf("%s - request %s: %w", logPrefix, subject, err)
	}
	if err := commsutil.DecodePayload(msg.Data, resp); err != nil {
		return fmt.Errorf("%s - decode reply from %s: %w", logPrefix, subject, err)
	}
	return nil
}
