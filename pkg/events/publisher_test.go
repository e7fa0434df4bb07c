package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.PublishNotification(context.Background(), &NotificationEvent{
		Level: LevelInfo,
		Text:  "hello",
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *NotificationEvent

	pub := NewCallbackPublisher(func(_ context.Context, event *NotificationEvent) error {
		captured = event
		return nil
	})

	err := pub.PublishNotification(context.Background(), &NotificationEvent{
		Level:     LevelError,
		Text:      "boom",
		Timestamp: "2025-01-01T00:00:00Z",
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if captured == nil {
		t.Fatal("expected callback to be called")
	}
	if captured.Level != LevelError || captured.Text != "boom" {
		t.Errorf("unexpected event %+v", captured)
	}
}

func TestNotifier_PublishesWithContext(t *testing.T) {
	var got []*NotificationEvent
	pub := NewCallbackPublisher(func(_ context.Context, event *NotificationEvent) error {
		got = append(got, event)
		return nil
	})
	n := NewNotifier(pub, "webview-bridge", "s1")
	n.now = func() time.Time { return time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC) }

	n.ShowError(context.Background(), "Not found")
	n.ShowInfo(context.Background(), "Configuration updated")

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Level != LevelError || got[0].Text != "Not found" {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].Level != LevelInfo || got[1].Namespace != "webview-bridge" || got[1].Session != "s1" {
		t.Errorf("second event = %+v", got[1])
	}
	if got[1].Timestamp != "2025-06-15T12:30:00Z" {
		t.Errorf("timestamp = %q", got[1].Timestamp)
	}
}

func TestNotifier_PublishErrorIsSwallowed(t *testing.T) {
	calls := 0
	pub := NewCallbackPublisher(func(_ context.Context, _ *NotificationEvent) error {
		calls++
		return errors.New("comms down")
	})
	n := NewNotifier(pub, "", "")
	n.ShowError(context.Background(), "x")
	if calls != 1 {
		t.Errorf("expected 1 publish attempt, got %d", calls)
	}
}

func TestNotifier_NilPublisher(t *testing.T) {
	n := NewNotifier(nil, "", "")
	n.ShowInfo(context.Background(), "ok")
}

func TestMultiPublisher(t *testing.T) {
	var calls int
	ok := NewCallbackPublisher(func(context.Context, *NotificationEvent) error {
		calls++
		return nil
	})
	failing := NewCallbackPublisher(func(context.Context, *NotificationEvent) error {
		calls++
		return errors.New("down")
	})

	err := MultiPublisher{failing, nil, ok}.PublishNotification(context.Background(), &NotificationEvent{Level: LevelInfo})
	if err == nil {
		t.Error("expected joined error")
	}
	if calls != 2 {
		t.Errorf("expected both publishers to be called, got %d calls", calls)
	}
	if err := (MultiPublisher{ok}).PublishNotification(context.Background(), &NotificationEvent{}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
