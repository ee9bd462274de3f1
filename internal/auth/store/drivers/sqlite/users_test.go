package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleUser(id, email string) domain.User {
	return domain.User{
		ID:           id,
		Email:        email,
		FirstName:    "Luigi",
		LastName:     "Verdi",
		Phone:        "+39 02 1234567",
		Role:         domain.RoleCustomer,
		PasswordHash: "$argon2id$...",
		IsActive:     true,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)
	users := st.Users()

	u := sampleUser("u1", "luigi@pizzeria.test")
	require.NoError(t, users.CreateUser(ctx, u))

	got, err := users.GetActiveUserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, u.Role, got.Role)
	require.False(t, got.CreatedAt.IsZero())

	// Email lookup is case-insensitive.
	got, err = users.GetUserByEmail(ctx, "LUIGI@Pizzeria.TEST")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)

	_, err = users.GetActiveUserByID(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)
	users := st.Users()

	require.NoError(t, users.CreateUser(ctx, sampleUser("u1", "dup@pizzeria.test")))

	err := users.CreateUser(ctx, sampleUser("u2", "DUP@pizzeria.test"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetActiveUserFiltersInactive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)
	users := st.Users()

	u := sampleUser("u1", "inactive@pizzeria.test")
	u.IsActive = false
	require.NoError(t, users.CreateUser(ctx, u))

	_, err := users.GetActiveUserByID(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Email lookup still finds it; SSO reconciliation needs that.
	got, err := users.GetUserByEmail(ctx, "inactive@pizzeria.test")
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestUpdateSSOLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)
	users := st.Users()

	require.NoError(t, users.CreateUser(ctx, sampleUser("u1", "link@pizzeria.test")))

	require.NoError(t, users.UpdateSSOLink(ctx, "u1", "keycloak", "ext-42", true))

	got, err := users.GetActiveUserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "keycloak", got.SSOProvider)
	require.Equal(t, "ext-42", got.SSOExternalID)
	require.True(t, got.EmailVerified)

	err = users.UpdateSSOLink(ctx, "missing", "keycloak", "ext-1", false)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Users) error {
		if err := tx.CreateUser(ctx, sampleUser("u1", "tx@pizzeria.test")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetUserByEmail(ctx, "tx@pizzeria.test")
	require.ErrorIs(t, err, store.ErrNotFound, "insert must have been rolled back")
}

func TestWithTxCommits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newStore(t)

	require.NoError(t, st.WithTx(ctx, func(tx store.Users) error {
		return tx.CreateUser(ctx, sampleUser("u1", "commit@pizzeria.test"))
	}))

	got, err := st.Users().GetUserByEmail(ctx, "commit@pizzeria.test")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)
}
