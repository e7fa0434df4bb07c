package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const notifierLogPrefix = "events:notifier"

// Notifier is the host's user-visible notification surface. Every message is
// logged and handed to the publisher; a publish failure is logged, never returned,
// so callers on the reply path are not affected.
type Notifier struct {
	publisher EventPublisher
	namespace string
	session   string
	now       func() time.Time
}

// NewNotifier creates a Notifier. A nil publisher only logs.
func NewNotifier(pub EventPublisher, namespace, session string) *Notifier {
	if pub == nil {
		pub = &NoOpPublisher{}
	}
	return &Notifier{publisher: pub, namespace: namespace, session: session, now: time.Now}
}

// ShowError surfaces an error message.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	slog.Warn(fmt.Sprintf("%s - [error] %s", notifierLogPrefix, text))
	n.publish(ctx, LevelError, text)
}

// ShowInfo surfaces an informational message.
func (n *Notifier) ShowInfo(ctx context.Context, text string) {
	slog.Info(fmt.Sprintf("%s - [info] %s", notifierLogPrefix, text))
	n.publish(ctx, LevelInfo, text)
}

func (n *Notifier) publish(ctx context.Context, level Level, text string) {
	event := &NotificationEvent{
		Level:     level,
		Text:      text,
		Namespace: n.namespace,
		Session:   n.session,
		Timestamp: n.now().UTC().Format(time.RFC3339),
	}
	if err := n.publisher.PublishNotification(ctx, event); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish notification: %v", notifierLogPrefix, err))
	}
}
