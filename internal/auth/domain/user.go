package domain

import "time"

// User is the read projection of the user-of-record that the auth core works
// with. Persistence belongs to the store drivers; this package only owns the
// role ordering semantics.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	Role         Role
	PasswordHash string // argon2 PHC string; sentinel for SSO-only accounts
	IsActive     bool

	// SSO linkage, populated by the bridge's reconciliation.
	SSOProvider   string
	SSOExternalID string
	EmailVerified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
