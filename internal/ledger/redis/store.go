// Package redis keeps ledger records as plain Redis strings. Updates use
// optimistic locking: every key read is WATCHed and the buffered writes are
// applied in one MULTI/EXEC.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cpamm/internal/ledger"
)

// Options holds connection parameters for the Redis backend.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key. Defaults to "amm:".
	Prefix string
}

// Store implements ledger.Store on Redis.
type Store struct {
	rdb    *redis.Client
	prefix string
}

var _ ledger.Store = (*Store)(nil)

// NewStore connects and pings the server.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "amm:"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Store{rdb: rdb, prefix: prefix}, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Update(ctx context.Context, fn func(ledger.KV) error) error {
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		kv := &watchKV{tx: tx, prefix: s.prefix, writes: make(map[string][]byte)}
		if err := fn(kv); err != nil {
			return err
		}
		if len(kv.writes) == 0 {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, value := range kv.writes {
				pipe.Set(ctx, key, value, 0)
			}
			return nil
		})
		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %v", ledger.ErrConflict, err)
	}
	return err
}

func (s *Store) View(ctx context.Context, fn func(ledger.KV) error) error {
	return fn(&readKV{rdb: s.rdb, prefix: s.prefix})
}

type watchKV struct {
	tx     *redis.Tx
	prefix string
	writes map[string][]byte
}

func (k *watchKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	full := k.prefix + key
	if value, ok := k.writes[full]; ok {
		return value, true, nil
	}
	if err := k.tx.Watch(ctx, full).Err(); err != nil {
		return nil, false, fmt.Errorf("redis: watch %s: %w", key, err)
	}
	return get(ctx, k.tx, full)
}

func (k *watchKV) Put(_ context.Context, key string, value []byte) error {
	k.writes[k.prefix+key] = append([]byte(nil), value...)
	return nil
}

type readKV struct {
	rdb    *redis.Client
	prefix string
}

func (k *readKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return get(ctx, k.rdb, k.prefix+key)
}

func (k *readKV) Put(context.Context, string, []byte) error {
	return ledger.ErrReadOnly
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func get(ctx context.Context, c getter, key string) ([]byte, bool, error) {
	value, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return value, true, nil
}
