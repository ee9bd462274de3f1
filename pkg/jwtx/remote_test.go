package jwtx

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeJWKS struct {
	set     atomic.Pointer[JWKS]
	fetches atomic.Int64
}

func (f *fakeJWKS) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		_ = json.NewEncoder(w).Encode(f.set.Load())
	}
}

func newRSASigner(t *testing.T, kid string) (Signer, *rsa.PublicKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	signer, err := NewSignerRS256(kid, pemKey)
	require.NoError(t, err)
	return signer, &key.PublicKey
}

func TestRemoteVerifierRoundTrip(t *testing.T) {
	t.Parallel()

	signer, pub := newRSASigner(t, "kid-a")

	srv := &fakeJWKS{}
	srv.set.Store(&JWKS{Keys: []JWK{NewRSAJWK("kid-a", pub)}})
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	verifier := NewRemoteVerifier(ts.URL, VerifyOptions{})

	token, err := signer.Sign(NewClaims(testIdentity(), "sid-1", time.Minute, "", nil, time.Now()))
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "usr-1", got.Subject)
	require.EqualValues(t, 1, srv.fetches.Load())

	// Second verification hits the cached key set.
	_, err = verifier.Verify(token)
	require.NoError(t, err)
	require.EqualValues(t, 1, srv.fetches.Load())
}

func TestRemoteVerifierRefetchesUnknownKID(t *testing.T) {
	t.Parallel()

	signerA, pubA := newRSASigner(t, "kid-a")
	signerB, pubB := newRSASigner(t, "kid-b")

	srv := &fakeJWKS{}
	srv.set.Store(&JWKS{Keys: []JWK{NewRSAJWK("kid-a", pubA)}})
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	verifier := NewRemoteVerifier(ts.URL, VerifyOptions{})

	tokenA, err := signerA.Sign(NewClaims(testIdentity(), "s1", time.Minute, "", nil, time.Now()))
	require.NoError(t, err)
	_, err = verifier.Verify(tokenA)
	require.NoError(t, err)

	// Key rotation upstream: kid-b appears, verifier must refetch even
	// though its cache is still fresh.
	srv.set.Store(&JWKS{Keys: []JWK{NewRSAJWK("kid-a", pubA), NewRSAJWK("kid-b", pubB)}})

	tokenB, err := signerB.Sign(NewClaims(testIdentity(), "s2", time.Minute, "", nil, time.Now()))
	require.NoError(t, err)
	_, err = verifier.Verify(tokenB)
	require.NoError(t, err)
	require.EqualValues(t, 2, srv.fetches.Load())
}

func TestRemoteVerifierUnknownKIDAfterFreshFetch(t *testing.T) {
	t.Parallel()

	signer, _ := newRSASigner(t, "kid-missing")
	_, pubOther := newRSASigner(t, "kid-a")

	srv := &fakeJWKS{}
	srv.set.Store(&JWKS{Keys: []JWK{NewRSAJWK("kid-a", pubOther)}})
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	verifier := NewRemoteVerifier(ts.URL, VerifyOptions{})

	token, err := signer.Sign(NewClaims(testIdentity(), "s1", time.Minute, "", nil, time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrRemote)
}

func TestRemoteVerifierUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	signer, _ := newRSASigner(t, "kid-a")
	verifier := NewRemoteVerifier("http://127.0.0.1:1/jwks.json", VerifyOptions{},
		WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))

	token, err := signer.Sign(NewClaims(testIdentity(), "s1", time.Minute, "", nil, time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrRemote)
}

func TestRemoteVerifierCacheExpiry(t *testing.T) {
	t.Parallel()

	signer, pub := newRSASigner(t, "kid-a")

	srv := &fakeJWKS{}
	srv.set.Store(&JWKS{Keys: []JWK{NewRSAJWK("kid-a", pub)}})
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	now := time.Now()
	clock := func() time.Time { return now }
	verifier := NewRemoteVerifier(ts.URL, VerifyOptions{}, WithClock(func() time.Time { return clock() }))

	token, err := signer.Sign(NewClaims(testIdentity(), "s1", time.Minute, "", nil, time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.NoError(t, err)
	require.EqualValues(t, 1, srv.fetches.Load())

	// Advance past the cache TTL: next verify refetches.
	clock = func() time.Time { return now.Add(DefaultJWKSCacheTTL + time.Minute) }
	_, err = verifier.Verify(token)
	require.NoError(t, err)
	require.EqualValues(t, 2, srv.fetches.Load())
}
