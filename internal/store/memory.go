package store

import (
	"context"
	"sync"
)

// Memory is a process-local store used by tests and by `--store memory`
// for throwaway sessions.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Update holds the store lock for the whole of fn and applies its writes
// only when fn succeeds.
func (m *Memory) Update(ctx context.Context, fn func(tx KV) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{m: m}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, w := range tx.writes.order {
		if w.value == nil {
			delete(m.data, w.key)
		} else {
			m.data[w.key] = *w.value
		}
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

type memoryTx struct {
	m      *Memory
	writes writeSet
}

func (t *memoryTx) Get(_ context.Context, key string) (string, error) {
	if v, removed, ok := t.writes.lookup(key); ok {
		if removed {
			return "", ErrNotFound
		}
		return v, nil
	}
	v, ok := t.m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (t *memoryTx) Set(_ context.Context, key, value string) error {
	t.writes.put(key, &value)
	return nil
}

func (t *memoryTx) Remove(_ context.Context, key string) error {
	t.writes.put(key, nil)
	return nil
}
