package events

import (
	"context"
	"errors"
)

// EventPublisher is the interface for publishing notification events.
type EventPublisher interface {
	PublishNotification(ctx context.Context, event *NotificationEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for in-process usage without COMMS).
type NoOpPublisher struct{}

// PublishNotification is a no-op.
func (p *NoOpPublisher) PublishNotification(_ context.Context, _ *NotificationEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *NotificationEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *NotificationEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishNotification calls the callback.
func (p *CallbackPublisher) PublishNotification(ctx context.Context, event *NotificationEvent) error {
	return p.callback(ctx, event)
}

// MultiPublisher fans an event out to several publishers. Every publisher is
// called; the errors are joined.
type MultiPublisher []EventPublisher

// PublishNotification publishes to every non-nil publisher.
func (m MultiPublisher) PublishNotification(ctx context.Context, event *NotificationEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishNotification(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
