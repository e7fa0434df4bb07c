package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type memoryKey struct {
	namespace string
	root      string
	key       string
}

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[memoryKey]json.RawMessage
	writes int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[memoryKey]json.RawMessage)}
}

// Get implements Store. The returned value is a copy.
func (m *MemoryStore) Get(_ context.Context, scope Scope, key string) (json.RawMessage, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !scope.IsGlobal() {
		if v, ok := m.values[memoryKey{scope.Namespace, scope.Root, key}]; ok {
			return append(json.RawMessage(nil), v...), true, nil
		}
	}
	v, ok := m.values[memoryKey{scope.Namespace, "", key}]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), v...), true, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, scope Scope, key string, value json.RawMessage, global bool) error {
	if key == "" {
		return ErrEmptyKey
	}
	value = normalize(value)
	if !json.Valid(value) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}
	t := target(scope, global)
	k := memoryKey{t.Namespace, t.Root, key}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.values[k]; ok && JSONEqual(cur, value) {
		return nil
	}
	m.values[k] = append(json.RawMessage(nil), value...)
	m.writes++
	return nil
}

// Writes returns the number of writes that changed a stored value.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
