package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemory()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "roomtally.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			s := NewRedis(client, "test:")
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStoreGetSetRemove(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			_, err := s.Get(ctx, "rooms")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "rooms", `["A"]`))
			got, err := s.Get(ctx, "rooms")
			require.NoError(t, err)
			assert.Equal(t, `["A"]`, got)

			require.NoError(t, s.Set(ctx, "rooms", `["A","B"]`))
			got, err = s.Get(ctx, "rooms")
			require.NoError(t, err)
			assert.Equal(t, `["A","B"]`, got)

			require.NoError(t, s.Remove(ctx, "rooms"))
			_, err = s.Get(ctx, "rooms")
			assert.ErrorIs(t, err, ErrNotFound)

			// Removing an absent key is not an error.
			require.NoError(t, s.Remove(ctx, "rooms"))
		})
	}
}

func TestStoreUpdateCommitsAllWrites(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			require.NoError(t, s.Set(ctx, "budgets", `{"A":"1"}`))

			err := s.Update(ctx, func(tx KV) error {
				if err := tx.Set(ctx, "rooms", `["B"]`); err != nil {
					return err
				}
				// Reads see earlier writes in the same transaction.
				v, err := tx.Get(ctx, "rooms")
				if err != nil {
					return err
				}
				if v != `["B"]` {
					return errors.New("read-your-writes violated")
				}
				return tx.Remove(ctx, "budgets")
			})
			require.NoError(t, err)

			got, err := s.Get(ctx, "rooms")
			require.NoError(t, err)
			assert.Equal(t, `["B"]`, got)
			_, err = s.Get(ctx, "budgets")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreUpdateRollsBackOnError(t *testing.T) {
	boom := errors.New("boom")
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			require.NoError(t, s.Set(ctx, "rooms", `["A"]`))

			err := s.Update(ctx, func(tx KV) error {
				if err := tx.Set(ctx, "rooms", `[]`); err != nil {
					return err
				}
				if err := tx.Set(ctx, "calculations", `[]`); err != nil {
					return err
				}
				return boom
			})
			require.ErrorIs(t, err, boom)

			got, err := s.Get(ctx, "rooms")
			require.NoError(t, err)
			assert.Equal(t, `["A"]`, got)
			_, err = s.Get(ctx, "calculations")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRedisPrefixIsolatesKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedis(client, "roomtally:")

	require.NoError(t, s.Set(ctx, "rooms", `["A"]`))
	assert.True(t, mr.Exists("roomtally:rooms"))
	assert.False(t, mr.Exists("rooms"))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "etcd"})
	require.Error(t, err)
}

func TestOpenSQLiteReopensExistingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "roomtally.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "rooms", `["A"]`))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, err := s.Get(ctx, "rooms")
	require.NoError(t, err)
	assert.Equal(t, `["A"]`, got)
}
