package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/store"
	"github.com/Aurfi/pizzeria/pkg/idx"
	"github.com/Aurfi/pizzeria/pkg/jwtx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

// BlacklistTTL is how long a revoked access token stays on the blacklist.
// Longer than any access token can live, so the entry always outlasts the
// signature's validity.
const BlacklistTTL = 24 * time.Hour

// TokenService is the token codec: it mints, verifies, refreshes, and
// revokes bearer token pairs, and owns the session registry writes that go
// with them.
type TokenService struct {
	Signer jwtx.Signer
	Local  jwtx.Verifier
	// Remote is non-nil when SSO is enabled with a JWKS endpoint; Verify
	// then dispatches federated verification to it.
	Remote jwtx.Verifier

	Sessions  store.Sessions
	Blacklist store.Blacklist

	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issue mints a fresh access/refresh pair under a brand-new session id and
// registers the refresh token in the session store with a matching TTL.
func (s *TokenService) Issue(ctx context.Context, id jwtx.Identity) (domain.TokenPair, error) {
	now := time.Now().UTC()
	sid := idx.New().String()

	access := jwtx.NewClaims(id, sid, s.AccessTTL, s.Issuer, s.Audience, now)
	accessToken, err := s.Signer.Sign(access)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh := jwtx.NewClaims(id, sid, s.RefreshTTL, s.Issuer, s.Audience, now)
	refresh.TokenType = jwtx.TokenTypeRefresh
	refreshToken, err := s.Signer.Sign(refresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	rec := domain.SessionRecord{
		UserID:       id.UserID,
		Email:        id.Email,
		RefreshToken: refreshToken,
	}
	if err := s.Sessions.Put(ctx, sid, rec, s.RefreshTTL); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		SessionID:    sid,
	}, nil
}

// Verify validates a bearer token. Federated tokens go through the remote
// key-set verifier when one is configured; everything else verifies against
// the local key. The distinction between failure causes is logged upstream,
// never returned to the client.
func (s *TokenService) Verify(ctx context.Context, token string) (jwtx.Claims, error) {
	verifier := s.Local
	if s.Remote != nil {
		verifier = s.Remote
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		slogx.FromContext(ctx).Debug("token verification failed", "err", err)
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// VerifyLocal always uses the local key, regardless of SSO configuration.
// Role-gated routes use this path: they do not admit federated tokens.
func (s *TokenService) VerifyLocal(ctx context.Context, token string) (jwtx.Claims, error) {
	claims, err := s.Local.Verify(token)
	if err != nil {
		slogx.FromContext(ctx).Debug("local token verification failed", "err", err)
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// Refresh exchanges a valid refresh token for a new pair.
//
// All rejection causes collapse into ErrInvalidRefresh so the endpoint can't
// be used as an oracle for which check failed; the log keeps the detail.
// The old session record is NOT deleted: it ages out on its own TTL, but its
// stored value is overwritten with the new token so the superseded one can
// never be replayed. Two concurrent refreshes of the same still-valid token
// can both succeed (the read-check-write below is not atomic); the store
// resolves the overlapping writes last-write-wins.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	claims, err := s.Local.Verify(refreshToken)
	if err != nil {
		log.Info("refresh rejected: verification failed", "err", err)
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	if !claims.IsRefresh() {
		log.Info("refresh rejected: not a refresh token", "sid", claims.SID)
		return domain.TokenPair{}, ErrInvalidRefresh
	}
	if claims.SID == "" {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	rec, err := s.Sessions.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("refresh rejected: session gone", "sid", claims.SID)
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}

	// The stored token is the only one this session honours. A superseded
	// token (rotated away by an earlier refresh) no longer matches.
	if subtle.ConstantTimeCompare([]byte(rec.RefreshToken), []byte(refreshToken)) != 1 {
		log.Warn("refresh rejected: token does not match session record", "sid", claims.SID)
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	pair, err := s.Issue(ctx, claims.Identity())
	if err != nil {
		return domain.TokenPair{}, err
	}

	// Retire the presented token: the old record keeps its TTL but now
	// holds the rotated value, so presenting the old one again mismatches.
	// If the write fails the old token would stay live, so the whole
	// refresh fails; the client never saw the new pair.
	rec.RefreshToken = pair.RefreshToken
	if err := s.Sessions.Put(ctx, claims.SID, rec, s.RefreshTTL); err != nil {
		log.Error("failed to retire superseded refresh token", "sid", claims.SID, "err", err)
		return domain.TokenPair{}, err
	}

	return pair, nil
}

// Revoke deletes the session record. The refresh token dies with it.
func (s *TokenService) Revoke(ctx context.Context, sessionID string) error {
	return s.Sessions.Delete(ctx, sessionID)
}

// Logout revokes the session and blacklists the exact access-token string so
// it is rejected immediately even though its signature stays valid.
func (s *TokenService) Logout(ctx context.Context, accessToken, sessionID string) error {
	if err := s.Blacklist.Add(ctx, accessToken, BlacklistTTL); err != nil {
		return err
	}
	return s.Revoke(ctx, sessionID)
}
