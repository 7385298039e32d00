package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is a Store backed by a map. Values are copied on the way in and
// out so callers cannot alias stored bytes.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailWith, when set, is returned by every Put and Delete.
	FailWith error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
