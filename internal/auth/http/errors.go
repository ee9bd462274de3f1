package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/service"
	"github.com/Aurfi/pizzeria/pkg/httpx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

// writeServiceError maps a service-layer failure onto the uniform envelope.
// Everything unrecognized becomes a 500 with the detail in the log only.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var roleErr *service.RoleError
	var ssoErr *service.SSOError

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email_taken", "an account with this email already exists")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token", "refresh token is invalid or expired")
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrUnauthenticated):
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
	case errors.Is(err, service.ErrSSODisabled):
		httpx.WriteError(w, http.StatusBadRequest, "sso_disabled", "single sign-on is not enabled")
	case errors.As(err, &roleErr):
		required := make([]string, len(roleErr.Required))
		for i, role := range roleErr.Required {
			required[i] = role.String()
		}
		httpx.WriteJSON(w, http.StatusForbidden, httpx.ErrorBody{Error: httpx.ErrorDetail{
			Code:          "insufficient_role",
			Message:       "this operation requires a higher privilege level",
			RequiredRoles: required,
			ActualRole:    roleErr.Actual.String(),
		}})
	case errors.As(err, &ssoErr):
		// Upstream detail stays out of the response body.
		slogx.FromContext(ctx).Warn("sso flow failed", "op", ssoErr.Op, "err", ssoErr.Err)
		httpx.WriteError(w, http.StatusUnauthorized, "sso_failed", "single sign-on could not be completed")
	default:
		slogx.FromContext(ctx).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}

// userView is the public shape of an account in responses.
type userView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	SSO       string `json:"sso_provider,omitempty"`
}

func viewOf(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      u.Role.String(),
		SSO:       u.SSOProvider,
	}
}

// tokenResponse is the body returned by every endpoint that mints tokens.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	User         userView `json:"user"`
}

func tokenResponseOf(u domain.User, pair domain.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		User:         viewOf(u),
	}
}
