package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/store/drivers/sqlite"
	"github.com/Aurfi/pizzeria/pkg/cryptox"
	"github.com/Aurfi/pizzeria/pkg/idx"
	"github.com/Aurfi/pizzeria/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestUserStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedUser(t *testing.T, st *sqlite.Store, role domain.Role, active bool) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        idx.New().String() + "@pizzeria.test",
		PasswordHash: cryptox.SentinelHash(),
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestAuthorize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestUserStore(t)
	tokens, _, _ := newTestTokenService(t)
	roles := &RoleService{Tokens: tokens, Users: st.Users()}

	issueFor := func(t *testing.T, u domain.User) string {
		pair, err := tokens.Issue(ctx, identityOf(u))
		require.NoError(t, err)
		return pair.AccessToken
	}

	t.Run("allows matching role", func(t *testing.T) {
		u := seedUser(t, st, domain.RoleStaff, true)

		got, err := roles.Authorize(ctx, issueFor(t, u), domain.RoleStaff, domain.RoleAdmin, domain.RoleOwner)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("rejects role below the gate", func(t *testing.T) {
		u := seedUser(t, st, domain.RoleCustomer, true)

		_, err := roles.Authorize(ctx, issueFor(t, u), domain.RoleAdmin, domain.RoleOwner)

		var re *RoleError
		require.ErrorAs(t, err, &re)
		require.Equal(t, domain.RoleCustomer, re.Actual)
		require.Equal(t, []domain.Role{domain.RoleAdmin, domain.RoleOwner}, re.Required)
	})

	t.Run("uses the stored role, not the token's", func(t *testing.T) {
		u := seedUser(t, st, domain.RoleCustomer, true)

		// Token claims owner; the system of record says customer. The
		// stored role wins, so a stale (or forged) claim buys nothing.
		pair, err := tokens.Issue(ctx, jwtx.Identity{
			UserID: u.ID,
			Email:  u.Email,
			Roles:  []string{domain.RoleOwner.String()},
		})
		require.NoError(t, err)

		_, err = roles.Authorize(ctx, pair.AccessToken, domain.RoleOwner)

		var re *RoleError
		require.ErrorAs(t, err, &re)
		require.Equal(t, domain.RoleCustomer, re.Actual)
	})

	t.Run("rejects deactivated user", func(t *testing.T) {
		u := seedUser(t, st, domain.RoleOwner, false)

		_, err := roles.Authorize(ctx, issueFor(t, u), domain.RoleOwner)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		_, err := roles.Authorize(ctx, "not.a.jwt", domain.RoleOwner)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("rejects refresh token at the gate", func(t *testing.T) {
		u := seedUser(t, st, domain.RoleOwner, true)
		pair, err := tokens.Issue(ctx, identityOf(u))
		require.NoError(t, err)

		_, err = roles.Authorize(ctx, pair.RefreshToken, domain.RoleOwner)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestRoleOrderingAtTheGate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestUserStore(t)
	tokens, _, _ := newTestTokenService(t)
	roles := &RoleService{Tokens: tokens, Users: st.Users()}

	// staff-or-above gate: customer out, everyone else in.
	gate := []domain.Role{domain.RoleStaff, domain.RoleAdmin, domain.RoleOwner}

	for _, tc := range []struct {
		role    domain.Role
		allowed bool
	}{
		{domain.RoleCustomer, false},
		{domain.RoleStaff, true},
		{domain.RoleAdmin, true},
		{domain.RoleOwner, true},
	} {
		u := seedUser(t, st, tc.role, true)
		pair, err := tokens.Issue(ctx, identityOf(u))
		require.NoError(t, err)

		_, err = roles.Authorize(ctx, pair.AccessToken, gate...)
		if tc.allowed {
			require.NoError(t, err, "role %s", tc.role)
		} else {
			var re *RoleError
			require.ErrorAs(t, err, &re, "role %s", tc.role)
		}
	}
}
