// Package settings implements the host configuration store used by the
// getConfig and setConfig commands.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
)

// ErrEmptyKey is returned when a setting key is empty.
var ErrEmptyKey = errors.New("setting key is required")

// Scope selects where a setting is read from or written to. Root is the
// resolved project root; an empty Root addresses global (user) settings only.
type Scope struct {
	Namespace string
	Root      string
}

// Global returns the scope with its project root removed.
func (s Scope) Global() Scope {
	return Scope{Namespace: s.Namespace}
}

// IsGlobal reports whether the scope has no project root.
func (s Scope) IsGlobal() bool {
	return s.Root == ""
}

// Store is the host configuration store.
//
// Get returns the effective value of key: the project value when Root is set
// and one exists, otherwise the global value. The bool is false when neither exists.
//
// Set writes key in the project scope, or in the global scope when global is
// true or the scope has no root. Writing a value equal to the stored one is a no-op.
type Store interface {
	Get(ctx context.Context, scope Scope, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, scope Scope, key string, value json.RawMessage, global bool) error
}

// target returns the scope a write lands in.
func target(scope Scope, global bool) Scope {
	if global {
		return scope.Global()
	}
	return scope
}

// JSONEqual reports whether a and b encode the same JSON value, ignoring
// formatting and object key order. Invalid JSON is compared byte-wise.
func JSONEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

func normalize(value json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(value)) == 0 {
		return json.RawMessage("null")
	}
	return value
}
