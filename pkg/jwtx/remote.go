package jwtx

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// ErrRemote wraps any failure to obtain a verification key from the remote
// key-set endpoint: unreachable endpoint, bad payload, or a key id that is
// still unknown after a fresh fetch.
var ErrRemote = errors.New("jwtx: remote key verification failed")

// DefaultJWKSCacheTTL bounds how long a fetched key set is reused.
const DefaultJWKSCacheTTL = time.Hour

// RemoteVerifier verifies RS256 tokens against a published JWKS endpoint.
//
// The fetched key set is cached in memory on the verifier itself (not in
// package state) for up to the configured TTL. Concurrent verifications that
// miss the cache coalesce behind a single in-flight fetch.
type RemoteVerifier struct {
	url    string
	opts   VerifyOptions
	ttl    time.Duration
	client *http.Client
	now    func() time.Time

	sf singleflight.Group

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// RemoteOption tweaks a RemoteVerifier.
type RemoteOption func(*RemoteVerifier)

// WithHTTPClient overrides the HTTP client used for key-set fetches.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(v *RemoteVerifier) { v.client = c }
}

// WithCacheTTL overrides how long a fetched key set is trusted.
func WithCacheTTL(ttl time.Duration) RemoteOption {
	return func(v *RemoteVerifier) { v.ttl = ttl }
}

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) RemoteOption {
	return func(v *RemoteVerifier) { v.now = now }
}

// NewRemoteVerifier builds a verifier for the given JWKS endpoint.
func NewRemoteVerifier(jwksURL string, opts VerifyOptions, options ...RemoteOption) *RemoteVerifier {
	v := &RemoteVerifier{
		url:    jwksURL,
		opts:   opts,
		ttl:    DefaultJWKSCacheTTL,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
		keys:   map[string]*rsa.PublicKey{},
	}
	for _, o := range options {
		o(v)
	}
	return v
}

// Verify decodes the token header to find the key id, resolves the matching
// public key from the (possibly refreshed) key set, and verifies the token.
func (v *RemoteVerifier) Verify(token string) (Claims, error) {
	kid, err := peekKID(token)
	if err != nil {
		return Claims{}, err
	}

	key, err := v.keyFor(kid)
	if err != nil {
		return Claims{}, err
	}

	claims := Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithLeeway(v.opts.Leeway),
	)
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	}); err != nil {
		return Claims{}, mapParseError(err)
	}

	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// keyFor returns the verification key for kid, fetching a fresh key set if
// the cache is stale or doesn't know the kid.
func (v *RemoteVerifier) keyFor(kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	fresh := v.now().Sub(v.fetchedAt) < v.ttl
	key := v.keys[kid]
	v.mu.RUnlock()

	if fresh && key != nil {
		return key, nil
	}

	// Cache miss or stale: refresh once even if many goroutines race here.
	if _, err, _ := v.sf.Do("jwks", func() (any, error) {
		return nil, v.refresh()
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemote, err)
	}

	v.mu.RLock()
	key = v.keys[kid]
	v.mu.RUnlock()

	if key == nil {
		return nil, fmt.Errorf("%w: unknown kid %q", ErrRemote, kid)
	}
	return key, nil
}

func (v *RemoteVerifier) refresh() error {
	resp, err := v.client.Get(v.url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}

	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		pub, err := jwk.RSAPublicKey()
		if err != nil {
			continue // skip non-RSA entries
		}
		keys[jwk.Kid] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = v.now()
	v.mu.Unlock()
	return nil
}

// peekKID reads the "kid" header without verifying the signature.
func peekKID(token string) (string, error) {
	var claims Claims
	parsed, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return "", ErrMalformed
	}
	kid, _ := parsed.Header["kid"].(string)
	return kid, nil
}
