// Package events defines user-visible notification events and the publishers that deliver them.
package events

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// NotificationEvent is emitted whenever the host surfaces a message to the user.
type NotificationEvent struct {
	Level     Level  `json:"level"`
	Text      string `json:"text"`
	Namespace string `json:"namespace,omitempty"`
	Session   string `json:"session,omitempty"`
	Timestamp string `json:"timestamp"`
}
