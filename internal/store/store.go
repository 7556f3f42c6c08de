// Package store provides the durable string-keyed storage roomtally keeps
// its rooms, budgets and calculation history in.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a key has never been set or was removed.
var ErrNotFound = errors.New("store: key not found")

// KV is the single-key surface shared by stores and transactions.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Store is a durable key-value store. Each single-key call is atomic;
// Update runs fn so that all of its writes commit together or not at all.
// Reads inside fn observe fn's own earlier writes.
type Store interface {
	KV
	Update(ctx context.Context, fn func(tx KV) error) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config selects and parameterises a backend.
type Config struct {
	Backend string

	// SQLite
	Path string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		return OpenSQLite(ctx, cfg.Path)
	case BackendRedis:
		return OpenRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// pendingWrite is a buffered write inside a transaction. A nil value is a
// removal.
type pendingWrite struct {
	key   string
	value *string
}

// writeSet buffers transactional writes in order and answers reads of keys
// written earlier in the same transaction.
type writeSet struct {
	order []pendingWrite
	index map[string]int
}

func (w *writeSet) put(key string, value *string) {
	if w.index == nil {
		w.index = make(map[string]int)
	}
	if i, ok := w.index[key]; ok {
		w.order[i].value = value
		return
	}
	w.index[key] = len(w.order)
	w.order = append(w.order, pendingWrite{key: key, value: value})
}

// lookup reports (value, removed, found).
func (w *writeSet) lookup(key string) (string, bool, bool) {
	i, ok := w.index[key]
	if !ok {
		return "", false, false
	}
	if w.order[i].value == nil {
		return "", true, true
	}
	return *w.order[i].value, false, true
}
