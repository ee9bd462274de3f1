package httpx

import (
	"net/http"
	"strings"

	"github.com/Aurfi/pizzeria/pkg/cryptox"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

// Double-submit-cookie CSRF protection. Stateless: the server stores nothing,
// it only checks that the cookie token and the header token agree. The token
// is not a secret (the attacker's browser sends the cookie but cannot read
// it, and cannot set the header cross-origin), so plain string comparison is
// fine here.

const (
	// CSRFCookieName carries the token back on every request.
	CSRFCookieName = "csrf-token"
	// CSRFHeaderName is where clients must echo the cookie value.
	CSRFHeaderName = "x-csrf-token"
	// csrfTokenBytes is the raw entropy; hex-encoded it doubles in length.
	csrfTokenBytes = cryptox.TokenSize128
)

// CSRFConfig configures the guard.
type CSRFConfig struct {
	// SkipPaths bypass the check entirely, typically login/register/refresh
	// where the caller has no cookie pair yet.
	SkipPaths []string

	// Secure marks the provisioned cookie Secure (on behind TLS).
	Secure bool

	// CookieMaxAge bounds the provisioned cookie lifetime, in seconds.
	CookieMaxAge int
}

// CSRFMiddleware enforces the double-submit protocol.
//
// Safe methods (GET/HEAD/OPTIONS) always pass, and provision a token pair if
// the request carries none: the token is set as an HttpOnly cookie and echoed
// in the response header so the client can replay it. State-changing methods
// must present both halves with identical values.
func CSRFMiddleware(cfg CSRFConfig) Middleware {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if isSafeMethod(r.Method) {
				provisionToken(w, r, cfg)
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CSRFCookieName)
			header := r.Header.Get(CSRFHeaderName)
			if err != nil || cookie.Value == "" || header == "" {
				WriteError(w, http.StatusForbidden, "csrf_token_missing", "CSRF token missing")
				return
			}
			if cookie.Value != header {
				slogx.FromContext(r.Context()).Warn("csrf token mismatch", "path", r.URL.Path)
				WriteError(w, http.StatusForbidden, "csrf_token_mismatch", "CSRF token mismatch")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(m string) bool {
	switch strings.ToUpper(m) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// provisionToken establishes the cookie/header pair on safe requests that
// don't have one yet, and always echoes the current token in the response
// header so SPAs can pick it up without reading the cookie.
func provisionToken(w http.ResponseWriter, r *http.Request, cfg CSRFConfig) {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		w.Header().Set(CSRFHeaderName, cookie.Value)
		return
	}

	token, err := cryptox.GenerateHex(csrfTokenBytes)
	if err != nil {
		// Leave the request unprovisioned; the client's next unsafe call
		// will fail closed with csrf_token_missing.
		slogx.FromContext(r.Context()).Error("csrf token generation failed", "err", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   cfg.CookieMaxAge,
	})
	w.Header().Set(CSRFHeaderName, token)
}
