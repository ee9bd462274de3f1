package service

import (
	"context"
	"errors"
	"slices"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/store"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

// RoleService decides admission for role-gated operations.
type RoleService struct {
	Tokens *TokenService
	Users  store.Users
}

// Authorize verifies the token through the local path and checks the user's
// CURRENT role against the allowed set.
//
// The role is re-fetched from the system of record on every call rather than
// trusted from the token: a demoted user is blocked on their very next
// request, at the cost of one read per gated call. Keep it that way.
func (s *RoleService) Authorize(ctx context.Context, token string, allowed ...domain.Role) (domain.User, error) {
	log := slogx.FromContext(ctx)

	claims, err := s.Tokens.VerifyLocal(ctx, token)
	if err != nil {
		return domain.User{}, ErrUnauthenticated
	}
	if claims.IsRefresh() {
		return domain.User{}, ErrUnauthenticated
	}

	u, err := s.Users.GetActiveUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("authorize rejected: user missing or inactive", "user_id", claims.Subject)
			return domain.User{}, ErrUnauthenticated
		}
		return domain.User{}, err
	}

	if !slices.Contains(allowed, u.Role) {
		log.Info("authorize rejected: insufficient role",
			"user_id", u.ID, "role", u.Role, "required", allowed)
		return domain.User{}, &RoleError{Required: allowed, Actual: u.Role}
	}

	return u, nil
}
