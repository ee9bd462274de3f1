package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const deniedPrefix = "denied:"

// BlacklistStore registers revoked access tokens. The key is the literal
// token string; the value is a sentinel since presence is the whole signal.
type BlacklistStore struct {
	rdb *redis.Client
}

func NewBlacklistStore(rdb *redis.Client) *BlacklistStore {
	return &BlacklistStore{rdb: rdb}
}

func (b *BlacklistStore) Add(ctx context.Context, token string, ttl time.Duration) error {
	return b.rdb.Set(ctx, deniedPrefix+token, "1", ttl).Err()
}

// Contains propagates store errors to the caller instead of guessing: the
// authentication gate needs to fail closed when Redis is down.
func (b *BlacklistStore) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.rdb.Exists(ctx, deniedPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
