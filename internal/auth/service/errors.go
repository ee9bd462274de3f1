package service

import (
	"errors"
	"fmt"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_already_registered")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrSSODisabled        = errors.New("sso_disabled")
)

// RoleError reports a privilege failure. It carries both sides of the check
// so operators can see what was required versus what the caller actually
// holds; the HTTP layer includes both in the 403 body.
type RoleError struct {
	Required []domain.Role
	Actual   domain.Role
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("insufficient_privilege: need one of %v, have %q", e.Required, e.Actual)
}

// SSOError wraps an upstream identity-provider failure. The wrapped detail
// is for logs only; clients get a generic 401.
type SSOError struct {
	Op  string // which upstream step failed: "exchange", "userinfo", ...
	Err error
}

func (e *SSOError) Error() string {
	return fmt.Sprintf("sso_authentication_failed: %s: %v", e.Op, e.Err)
}

func (e *SSOError) Unwrap() error { return e.Err }
