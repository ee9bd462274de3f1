package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

// fakeIdP stands in for the remote identity provider: a token endpoint that
// accepts any code except "bad-code", and a userinfo endpoint serving a
// canned profile document.
type fakeIdP struct {
	srv     *httptest.Server
	profile map[string]any
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	idp := &fakeIdP{
		profile: map[string]any{
			"sub":            "remote-123",
			"email":          "peach@pizzeria.test",
			"email_verified": true,
			"given_name":     "Peach",
			"family_name":    "Toadstool",
			"groups":         []string{"kitchen", "front-of-house"},
			"favorite_pizza": "margherita",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") == "bad-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"remote-access-token","token_type":"Bearer","expires_in":300}`))
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer remote-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(idp.profile))
	})

	idp.srv = httptest.NewServer(mux)
	t.Cleanup(idp.srv.Close)
	return idp
}

func (f *fakeIdP) config() SSOConfig {
	return SSOConfig{
		Enabled:      true,
		Provider:     "fakeidp",
		IssuerURL:    f.srv.URL,
		ClientID:     "pizzeria-client",
		ClientSecret: "pizzeria-secret",
		RedirectURI:  "http://localhost:8080/auth/sso/callback",
		AuthURL:      f.srv.URL + "/authorize",
		TokenURL:     f.srv.URL + "/token",
		UserInfoURL:  f.srv.URL + "/userinfo",
		JWKSURL:      f.srv.URL + "/jwks",
	}
}

func newTestSSO(t *testing.T, idp *fakeIdP) (*SSOService, *TokenService) {
	t.Helper()
	st := newTestUserStore(t)
	tokens, _, _ := newTestTokenService(t)
	return NewSSOService(context.Background(), idp.config(), st, tokens), tokens
}

func TestAuthorizationURL(t *testing.T) {
	t.Parallel()
	idp := newFakeIdP(t)
	sso, _ := newTestSSO(t, idp)

	u, err := sso.AuthorizationURL("state-xyz")
	require.NoError(t, err)
	require.Contains(t, u, idp.srv.URL+"/authorize")
	require.Contains(t, u, "state=state-xyz")
	require.Contains(t, u, "client_id=pizzeria-client")
	require.Contains(t, u, "scope=openid+email+profile")
}

func TestHandleCallbackProvisionsNewUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIdP(t)
	sso, tokens := newTestSSO(t, idp)

	u, pair, err := sso.HandleCallback(ctx, "good-code")
	require.NoError(t, err)
	require.Equal(t, "peach@pizzeria.test", u.Email)
	require.Equal(t, "Peach", u.FirstName)
	require.Equal(t, "Toadstool", u.LastName)
	require.Equal(t, domain.RoleCustomer, u.Role)
	require.Equal(t, "fakeidp", u.SSOProvider)
	require.Equal(t, "remote-123", u.SSOExternalID)
	require.True(t, u.EmailVerified)

	claims, err := tokens.Verify(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, "fakeidp", claims.SSOProvider)
	require.Equal(t, []string{"kitchen", "front-of-house"}, claims.Groups)
}

func TestHandleCallbackIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIdP(t)
	sso, _ := newTestSSO(t, idp)

	u1, _, err := sso.HandleCallback(ctx, "good-code")
	require.NoError(t, err)

	// Second login with the same remote identity reuses the local row.
	u2, _, err := sso.HandleCallback(ctx, "good-code")
	require.NoError(t, err)
	require.Equal(t, u1.ID, u2.ID)
}

func TestHandleCallbackLinksExistingLocalAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idp := newFakeIdP(t)

	st := newTestUserStore(t)
	tokens, _, _ := newTestTokenService(t)
	sso := NewSSOService(ctx, idp.config(), st, tokens)

	// A pre-existing local account with the same email. It was registered
	// as staff; the SSO link must not reset the role.
	local := seedUser(t, st, domain.RoleStaff, true)
	idp.profile["email"] = local.Email

	u, _, err := sso.HandleCallback(ctx, "good-code")
	require.NoError(t, err)
	require.Equal(t, local.ID, u.ID)
	require.Equal(t, domain.RoleStaff, u.Role)
	require.Equal(t, "fakeidp", u.SSOProvider)
	require.Equal(t, "remote-123", u.SSOExternalID)
}

func TestHandleCallbackBadCode(t *testing.T) {
	t.Parallel()
	idp := newFakeIdP(t)
	sso, _ := newTestSSO(t, idp)

	_, _, err := sso.HandleCallback(context.Background(), "bad-code")

	var se *SSOError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "exchange", se.Op)
}

func TestHandleCallbackProfileWithoutEmail(t *testing.T) {
	t.Parallel()
	idp := newFakeIdP(t)
	delete(idp.profile, "email")
	sso, _ := newTestSSO(t, idp)

	_, _, err := sso.HandleCallback(context.Background(), "good-code")

	var se *SSOError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "userinfo", se.Op)
}

func TestSSODisabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestUserStore(t)
	tokens, _, _ := newTestTokenService(t)
	sso := NewSSOService(ctx, SSOConfig{Enabled: false}, st, tokens)

	require.False(t, sso.Enabled())

	_, err := sso.AuthorizationURL("state")
	require.ErrorIs(t, err, ErrSSODisabled)

	_, _, err = sso.HandleCallback(ctx, "code")
	require.ErrorIs(t, err, ErrSSODisabled)
}
