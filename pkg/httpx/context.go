package httpx

import (
	"context"

	"github.com/Aurfi/pizzeria/pkg/jwtx"
)

type ctxKey string

const (
	ctxKeyClaims   ctxKey = "claims"
	ctxKeyRawToken ctxKey = "raw_token"
)

// ContextWithAuth stores the verified claims and the raw bearer token of the
// current request. The raw token is kept so role-gated handlers can hand it
// to the role resolver, and so logout can blacklist the exact string.
func ContextWithAuth(ctx context.Context, claims jwtx.Claims, raw string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyClaims, claims)
	return context.WithValue(ctx, ctxKeyRawToken, raw)
}

// ClaimsFromContext returns the verified claims of the current request.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(jwtx.Claims)
	return c, ok
}

// RawTokenFromContext returns the raw bearer token of the current request.
func RawTokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyRawToken).(string)
	return s
}
