package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/Aurfi/pizzeria/internal/auth/service"
	"github.com/Aurfi/pizzeria/internal/auth/store"
	"github.com/Aurfi/pizzeria/pkg/httpx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

const minPasswordLen = 8

// AuthHandler serves the local-credential endpoints: register, login,
// refresh, logout, and the authenticated profile read.
type AuthHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
	Users        store.Users
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// HandleRegister handles POST /auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_email", "a valid email address is required")
		return
	}
	if len(req.Password) < minPasswordLen {
		httpx.WriteError(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
		return
	}

	u, pair, err := h.UserService.Register(ctx, service.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	slogx.FromContext(ctx).Info("account registered", "user_id", u.ID)
	httpx.WriteJSON(w, http.StatusCreated, tokenResponseOf(u, pair))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	u, pair, err := h.UserService.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	slogx.FromContext(ctx).Info("login", "user_id", u.ID)
	httpx.WriteJSON(w, http.StatusOK, tokenResponseOf(u, pair))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleRefresh handles POST /auth/refresh.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.TokenService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	// The refreshed pair carries the same identity; the client already
	// knows who it is, so no user block here.
	httpx.WriteJSON(w, http.StatusOK, struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	})
}

// HandleLogout handles POST /auth/logout. Runs behind the authn middleware:
// the exact presented token is blacklisted and its session deleted.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		writeServiceError(ctx, w, service.ErrUnauthenticated)
		return
	}
	raw := httpx.RawTokenFromContext(ctx)

	if err := h.TokenService.Logout(ctx, raw, claims.SID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	slogx.FromContext(ctx).Info("logout", "user_id", claims.Subject, "sid", claims.SID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /auth/me. Runs behind the authn middleware and reads
// the current row rather than trusting token claims, so role or profile
// changes show up immediately.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		writeServiceError(ctx, w, service.ErrUnauthenticated)
		return
	}

	u, err := h.Users.GetActiveUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeServiceError(ctx, w, service.ErrUnauthenticated)
			return
		}
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, viewOf(u))
}
