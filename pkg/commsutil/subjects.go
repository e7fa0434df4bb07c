package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectNotify  = "bridge.notify"
	SubjectPrompt  = "bridge.host.prompt"
	SubjectOpenURL = "bridge.host.openUrl"
)

// BuildInboundSubject builds the subject a UI surface publishes envelopes on.
func BuildInboundSubject(session string) string {
	return fmt.Sprintf("bridge.%s.in", sanitizeToken(session))
}

// BuildOutboundSubject builds the subject the host publishes replies and pushes on.
func BuildOutboundSubject(session string) string {
	return fmt.Sprintf("bridge.%s.out", sanitizeToken(session))
}

// BuildNotifySubject builds a level-scoped notification subject (e.g. bridge.notify.error).
func BuildNotifySubject(base, level string) string {
	return base + "." + level
}

// sanitizeToken keeps a session id usable as a single subject token.
func sanitizeToken(s string) string {
	if s == "" {
		return "default"
	}
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}
