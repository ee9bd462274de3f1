// Package rate provides the request limiters behind the HTTP middleware: a
// Redis fixed-window counter for multi-instance deployments and an
// in-process fallback for dev and tests.
package rate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWindow bumps the counter and stamps the window TTL on first hit, in
// one round trip.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter is a fixed-window counter: at most Limit hits per key per
// Window. Windows are aligned to the first hit, not the wall clock, which is
// fine for abuse throttling.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Allow reports whether key has budget left in the current window. Errors
// propagate to the middleware, which lets the request through.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := incrWindow.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n <= l.limit, nil
}
