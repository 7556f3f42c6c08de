package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// maxTxRetries bounds optimistic retries when a watched key changes under
// an Update.
const maxTxRetries = 5

// RedisOptions configures OpenRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prepended to every key, e.g. "roomtally:"
}

// Redis stores each key as a plain redis string.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis store: empty address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return NewRedis(client, opts.Prefix), nil
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", key, err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}

// Update watches every key fn reads and commits fn's writes in one
// MULTI/EXEC. If a watched key changes before EXEC, fn is re-run.
func (r *Redis) Update(ctx context.Context, fn func(tx KV) error) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &redisTx{r: r, rtx: rtx}
			if err := fn(tx); err != nil {
				return err
			}
			if len(tx.writes.order) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, w := range tx.writes.order {
					if w.value == nil {
						pipe.Del(ctx, r.key(w.key))
					} else {
						pipe.Set(ctx, r.key(w.key), *w.value, 0)
					}
				}
				return nil
			})
			return err
		})
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis transaction: gave up after %d conflicting attempts", maxTxRetries)
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

type redisTx struct {
	r      *Redis
	rtx    *redis.Tx
	writes writeSet
}

func (t *redisTx) Get(ctx context.Context, key string) (string, error) {
	if v, removed, ok := t.writes.lookup(key); ok {
		if removed {
			return "", ErrNotFound
		}
		return v, nil
	}
	full := t.r.key(key)
	if err := t.rtx.Watch(ctx, full).Err(); err != nil {
		return "", fmt.Errorf("watching %q: %w", key, err)
	}
	val, err := t.rtx.Get(ctx, full).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", key, err)
	}
	return val, nil
}

func (t *redisTx) Set(_ context.Context, key, value string) error {
	t.writes.put(key, &value)
	return nil
}

func (t *redisTx) Remove(_ context.Context, key string) error {
	t.writes.put(key, nil)
	return nil
}
