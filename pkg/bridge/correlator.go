package bridge

import (
	"context"
	"fmt"
	"log/slog"
)

const correlatorLogPrefix = "bridge:correlator"

// Correlator turns handler results into reply envelopes addressed to the originating request.
type Correlator struct {
	notifier Notifier
}

// NewCorrelator creates a Correlator. A nil notifier disables error surfacing.
func NewCorrelator(n Notifier) *Correlator {
	return &Correlator{notifier: n}
}

// Reply surfaces an error result once and builds the reply for in. It returns
// false for fire-and-forget envelopes; their errors are still surfaced.
func (c *Correlator) Reply(ctx context.Context, in Envelope, res Result) (Envelope, bool) {
	if info := Classify(res); info != nil && c.notifier != nil {
		c.notifier.ShowError(ctx, info.Text())
	}
	if !in.ExpectsReply() {
		return Envelope{}, false
	}

	raw, err := marshalPayload(res.payload())
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode result for %s (%s): %v", correlatorLogPrefix, in.Kind, in.CorrelationID, err))
		raw, _ = marshalPayload(&ErrorInfo{Code: 500, Message: "Failed to encode result"})
	}

	return Envelope{
		Kind:          KindCallback,
		Payload:       raw,
		CorrelationID: in.CorrelationID,
	}, true
}
