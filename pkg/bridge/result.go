package bridge

import (
	"encoding/json"
	"fmt"
)

// DefaultErrorMessage is shown when an error result carries no message.
const DefaultErrorMessage = "An unknown error occurred"

// ErrorInfo is the structured error half of a handler Result.
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// IsError reports whether the code falls in the user-facing error range [400, 600).
func (e *ErrorInfo) IsError() bool {
	return e != nil && e.Code >= 400 && e.Code < 600
}

// Text returns the message to surface for this error.
func (e *ErrorInfo) Text() string {
	if e == nil || e.Message == "" {
		return DefaultErrorMessage
	}
	return e.Message
}

// Result is what a handler produces. Err takes precedence over Value on the wire.
type Result struct {
	Value any
	Err   *ErrorInfo
}

// OK wraps a successful value.
func OK(v any) Result {
	return Result{Value: v}
}

// Fail builds an error result.
func Fail(code int, format string, args ...any) Result {
	return Result{Err: &ErrorInfo{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// payload returns the value to place on the wire.
func (r Result) payload() any {
	if r.Err != nil {
		return r.Err
	}
	return r.Value
}

// Classify returns the ErrorInfo to surface for r, or nil when r is a success.
// Untyped values (maps, raw JSON objects) are inspected for a numeric "code" field.
// Typed struct values are never inspected, even with a Code field: handlers
// report failures through Result.Err or an ErrorInfo value.
func Classify(r Result) *ErrorInfo {
	if r.Err != nil {
		if r.Err.IsError() {
			return r.Err
		}
		return nil
	}
	info := probe(r.Value)
	if info.IsError() {
		return info
	}
	return nil
}

func probe(v any) *ErrorInfo {
	switch t := v.(type) {
	case *ErrorInfo:
		return t
	case ErrorInfo:
		return &t
	case map[string]any:
		return fromMap(t)
	case json.RawMessage:
		var m map[string]any
		if err := json.Unmarshal(t, &m); err != nil {
			return nil
		}
		return fromMap(m)
	}
	return nil
}

func fromMap(m map[string]any) *ErrorInfo {
	var code int
	switch c := m["code"].(type) {
	case float64:
		code = int(c)
	case int:
		code = c
	case json.Number:
		n, err := c.Int64()
		if err != nil {
			return nil
		}
		code = int(n)
	default:
		return nil
	}
	msg, _ := m["message"].(string)
	return &ErrorInfo{Code: code, Message: msg}
}
