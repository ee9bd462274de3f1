package domain

import "time"

// SessionRecord is what the key-value store holds per session identifier.
// The stored refresh token is the only one the session will honour: a
// superseded token no longer matches and is rejected on refresh.
type SessionRecord struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

// TokenPair is what login, registration, SSO callback, and refresh return.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"` // access token lifetime
	SessionID    string        `json:"-"`          // never serialized to clients
}
