// Package ledger keeps rooms, per-room budget entries and the calculation
// history consistent on top of a store.Store.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/store"
)

// Storage keys.
const (
	KeyRooms        = "rooms"
	KeyBudgets      = "budgets"
	KeyCalculations = "calculations"
	KeyDailyTotal   = "dailyTotal" // legacy, only ever removed
)

// Repository is the single entry point to persisted roomtally data. Build
// one per process and pass it to whatever needs it.
type Repository struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// Option customises a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for default dates.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) { r.newID = fn }
}

// New returns a repository over s. A nil logger disables logging.
func New(s store.Store, log *zap.Logger, opts ...Option) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Repository{
		store: s,
		log:   log,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close closes the underlying store.
func (r *Repository) Close() error {
	return r.store.Close()
}

// readJSON decodes key into dst. It reports false, with dst untouched, when
// the key is absent.
func readJSON(ctx context.Context, kv store.KV, key string, dst any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

func writeJSON(ctx context.Context, kv store.KV, key string, v any) error {
	data, err := model.EncodeJSON(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	return kv.Set(ctx, key, string(data))
}
