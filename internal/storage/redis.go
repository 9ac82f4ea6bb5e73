package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KV on top of a shared Redis client.  Blob keys
// use plain string values; list keys use Redis lists.  No TTLs are
// set here: logical expiry (e.g. the 4 hour session window) is a
// read-side decision made by the stores, never a storage sweep.
type RedisKV struct {
	rdb *redis.Client
}

// NewRedisKV wraps an existing Redis client.  The client may be the
// same one used by the cache and rate-limit middleware.
func NewRedisKV(rdb *redis.Client) *RedisKV { return &RedisKV{rdb: rdb} }

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *RedisKV) ListAll(ctx context.Context, key string) ([][]byte, error) {
	vals, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		out = append(out, []byte(v))
	}
	return out, nil
}

func (s *RedisKV) ListPush(ctx context.Context, key string, value []byte) error {
	return s.rdb.RPush(ctx, key, value).Err()
}

// ListRemove maps to LREM with count 1: exactly one matching element
// goes, elements pushed concurrently stay.
func (s *RedisKV) ListRemove(ctx context.Context, key string, value []byte) error {
	return s.rdb.LRem(ctx, key, 1, value).Err()
}
