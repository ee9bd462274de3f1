package httpx

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/Aurfi/pizzeria/pkg/slogx"
)

// Limiter decides whether a request identified by key may proceed.
// Implementations live in internal/rate.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimitMiddleware throttles by client IP. It FAILS OPEN: when the
// limiter backend errors we let the request through rather than turning a
// store outage into an API outage. That is the documented policy for rate
// limiting only; the auth blacklist check in AuthnMiddleware fails closed.
func RateLimitMiddleware(l Limiter, scope string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := scope + ":" + clientIP(r)

			allowed, err := l.Allow(ctx, key)
			if err != nil {
				slogx.FromContext(ctx).Warn("rate limiter unavailable, allowing request", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller address, preferring X-Forwarded-For since the
// API normally sits behind a reverse proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
