package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries as plain string keys and tags as sets of key
// names. Tag sets carry their own TTL so an invalidation that never comes
// doesn't leak membership forever.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
	tagTTL time.Duration
}

func NewRedisBackend(rdb *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{rdb: rdb, prefix: prefix, tagTTL: 24 * time.Hour}
}

func (r *RedisBackend) key(k string) string { return r.prefix + ":" + k }
func (r *RedisBackend) tag(t string) string { return r.prefix + ":tag:" + t }

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.rdb.Del(ctx, full...).Err()
}

func (r *RedisBackend) Tag(ctx context.Context, tag, key string) error {
	pipe := r.rdb.Pipeline()
	pipe.SAdd(ctx, r.tag(tag), key)
	pipe.Expire(ctx, r.tag(tag), r.tagTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisBackend) TaggedKeys(ctx context.Context, tag string) ([]string, error) {
	return r.rdb.SMembers(ctx, r.tag(tag)).Result()
}
