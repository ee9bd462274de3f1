package store

import (
	"context"
	"errors"
	"time"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Sessions is the key-value registry of live sessions. One record per
// session id, TTL equal to the refresh token lifetime.
type Sessions interface {
	// Put writes or replaces the record under id with the given TTL.
	Put(ctx context.Context, id string, rec domain.SessionRecord, ttl time.Duration) error

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (domain.SessionRecord, error)

	// Delete removes the record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}

// Blacklist registers revoked access tokens by their literal string value.
// Entries are never deleted explicitly; they age out with the TTL.
type Blacklist interface {
	// Add marks the token revoked for ttl.
	Add(ctx context.Context, token string, ttl time.Duration) error

	// Contains reports whether the token has been revoked. An error means
	// the store could not answer; the auth gate treats that as revoked.
	Contains(ctx context.Context, token string) (bool, error)
}

// Users is the single query contract against the user system of record.
type Users interface {
	// GetActiveUserByID loads a user filtered to active accounts.
	GetActiveUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail loads a user regardless of active flag (SSO
	// reconciliation must find deactivated rows too).
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateSSOLink sets provider/external-id/verified fields in place.
	UpdateSSOLink(ctx context.Context, userID, provider, externalID string, verified bool) error
}

// UserStore is the root interface concrete SQL drivers implement.
type UserStore interface {
	Users() Users

	// WithTx runs fn against a transaction-scoped Users. If fn returns an
	// error the transaction is rolled back, otherwise committed. This is
	// what keeps SSO reconciliation atomic.
	WithTx(ctx context.Context, fn func(tx Users) error) error

	ApplyMigrations() error
	Ping(ctx context.Context) error
	Close() error
}
