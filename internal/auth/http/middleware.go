package http

import (
	"context"
	"net/http"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/service"
	"github.com/Aurfi/pizzeria/pkg/httpx"
)

type userCtxKey struct{}

// UserFromContext returns the resolved user placed by RequireRole.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(domain.User)
	return u, ok
}

// RequireRole gates a route on the caller's CURRENT role. It runs after the
// authn middleware, reusing the raw bearer token from the request context so
// the role resolver can re-verify and re-fetch the user of record.
func RequireRole(roles *service.RoleService, allowed ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := httpx.RawTokenFromContext(ctx)
			if raw == "" {
				writeServiceError(ctx, w, service.ErrUnauthenticated)
				return
			}

			u, err := roles.Authorize(ctx, raw, allowed...)
			if err != nil {
				writeServiceError(ctx, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userCtxKey{}, u)))
		})
	}
}
