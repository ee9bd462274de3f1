package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default lifetimes for the two halves of a token pair. Access tokens stay
// short so a stolen one ages out quickly; refresh tokens match the session
// record TTL in the store.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenTypeRefresh marks refresh tokens. Access tokens carry no type claim
// at all, so presenting one to the refresh endpoint is detectable.
const TokenTypeRefresh = "refresh"

// Claims is the token payload shared by access and refresh tokens. The user
// id rides in the registered Subject claim.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user.
	Email string `json:"email,omitempty"`

	// Roles assigned to the user at issuance time. Informational only:
	// role-gated routes re-load the role from the system of record.
	Roles []string `json:"roles,omitempty"`

	// Groups from a federated identity provider, if any.
	Groups []string `json:"groups,omitempty"`

	// SSOProvider tags tokens minted through the SSO bridge.
	SSOProvider string `json:"sso_provider,omitempty"`

	// SID correlates an access/refresh pair with its session record.
	SID string `json:"sid,omitempty"`

	// TokenType is empty for access tokens and "refresh" for refresh tokens.
	TokenType string `json:"type,omitempty"`
}

// Identity is the caller-supplied part of a claim set.
type Identity struct {
	UserID      string
	Email       string
	Roles       []string
	Groups      []string
	SSOProvider string
}

// NewClaims builds a claim set for the given identity and session.
func NewClaims(id Identity, sid string, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:       id.Email,
		Roles:       id.Roles,
		Groups:      id.Groups,
		SSOProvider: id.SSOProvider,
		SID:         sid,
	}
}

// IsRefresh reports whether the claims belong to a refresh token.
func (c *Claims) IsRefresh() bool { return c.TokenType == TokenTypeRefresh }

// Identity extracts the identity fields back out of a claim set, which is
// how a refresh preserves the original login's identity.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:      c.Subject,
		Email:       c.Email,
		Roles:       c.Roles,
		Groups:      c.Groups,
		SSOProvider: c.SSOProvider,
	}
}

// ValidateIssuer checks the issuer against the expected value. An empty
// expectation enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks that at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}
