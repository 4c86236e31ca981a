package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is prepended to every session key.
const DefaultRedisPrefix = "morph:session:"

// RedisStore keeps snapshots in Redis with a native TTL, so servers behind
// a load balancer can resume each other's sessions.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	owned  bool
	closed atomic.Bool
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default: DefaultRedisPrefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// NewRedisStore connects to the Redis server at addr. The store owns the
// client and closes it on Close.
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	r := NewRedisStoreFromClient(client, opts...)
	r.owned = true
	return r
}

// NewRedisStoreFromClient wraps an existing client. Close leaves the client
// open.
func NewRedisStoreFromClient(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	r := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Save implements Store. An expiry in the past deletes the key.
func (r *RedisStore) Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(id)).Err()
	}
	return r.client.Set(ctx, r.key(id), data, ttl).Err()
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context, id string) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrStoreClosed
	}
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	return r.client.Del(ctx, r.key(id)).Err()
}

// Touch implements Store.
func (r *RedisStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(id)).Err()
	}
	return r.client.Expire(ctx, r.key(id), ttl).Err()
}

// SaveAll implements Store with a MULTI/EXEC pipeline. Entries that have
// already expired are skipped.
func (r *RedisStore) SaveAll(ctx context.Context, entries map[string]Entry) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	if len(entries) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, e := range entries {
			if ttl := time.Until(e.ExpiresAt); ttl > 0 {
				pipe.Set(ctx, r.key(id), e.Data, ttl)
			}
		}
		return nil
	})
	return err
}

// Close implements Store.
func (r *RedisStore) Close() error {
	if r.closed.Swap(true) || !r.owned {
		return nil
	}
	return r.client.Close()
}
