package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/Aurfi/pizzeria/internal/auth/service"
	"github.com/Aurfi/pizzeria/pkg/cryptox"
	"github.com/Aurfi/pizzeria/pkg/httpx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

const (
	ssoStateCookie = "sso-state"
	ssoStateMaxAge = 600 // ten minutes to complete the round trip
)

// SSOHandler drives the browser half of the federated login flow.
type SSOHandler struct {
	SSO    *service.SSOService
	Secure bool
}

// HandleLogin handles GET /auth/sso/login: mints a state nonce, parks it in
// a short-lived cookie, and redirects to the remote authorization endpoint.
func (h *SSOHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	redirect, err := h.SSO.AuthorizationURL(state)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     ssoStateCookie,
		Value:    state,
		Path:     "/auth/sso",
		MaxAge:   ssoStateMaxAge,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, redirect, http.StatusFound)
}

// HandleCallback handles GET /auth/sso/callback: validates state against the
// cookie, exchanges the code, and returns local tokens.
func (h *SSOHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		// The provider declined (user cancelled, consent denied, ...).
		log.Info("sso callback carried provider error", "provider_error", errParam)
		httpx.WriteError(w, http.StatusUnauthorized, "sso_failed", "single sign-on could not be completed")
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(ssoStateCookie)
	if err != nil || state == "" ||
		subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		log.Warn("sso state mismatch")
		httpx.WriteError(w, http.StatusBadRequest, "invalid_state", "state parameter does not match")
		return
	}

	// State is single use.
	http.SetCookie(w, &http.Cookie{
		Name:     ssoStateCookie,
		Value:    "",
		Path:     "/auth/sso",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code parameter is required")
		return
	}

	u, pair, err := h.SSO.HandleCallback(ctx, code)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponseOf(u, pair))
}
