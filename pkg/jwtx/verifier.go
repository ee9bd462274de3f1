package jwtx

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations shared by verifiers.
type VerifyOptions struct {
	// Issuer the token must carry (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain at least one of. Empty means
	// "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

type localVerifier struct {
	alg  string
	key  any // []byte for HMAC, *rsa.PublicKey for RSA
	opts VerifyOptions
}

// NewVerifierHS256 verifies HS256 tokens against a shared secret.
func NewVerifierHS256(secret string, opts VerifyOptions) (Verifier, error) {
	if len(secret) < MinHMACSecretLen {
		return nil, ErrWeakSecret
	}
	return &localVerifier{alg: "HS256", key: []byte(secret), opts: opts}, nil
}

// NewVerifierRS256 verifies RS256 tokens against a single public key.
func NewVerifierRS256(pub *rsa.PublicKey, opts VerifyOptions) Verifier {
	return &localVerifier{alg: "RS256", key: pub, opts: opts}
}

func (v *localVerifier) Verify(token string) (Claims, error) {
	claims := Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.alg}),
		jwt.WithLeeway(v.opts.Leeway),
	)

	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
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

// mapParseError folds golang-jwt's error tree into our sentinels so callers
// can switch on errors.Is without importing the jwt package.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// Algorithm rejections from WithValidMethods land here too, which
		// suits us: a token signed with the wrong alg is not acceptable.
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}

// ParseRSAPublicKeyPEM parses a PEM-encoded RSA public key (PKIX or PKCS1).
func ParseRSAPublicKeyPEM(pemKey []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, ErrBadKeyPEM
	}

	if parsed, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if pub, ok := parsed.(*rsa.PublicKey); ok {
			return pub, nil
		}
		return nil, ErrBadKeyPEM
	}

	pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, ErrBadKeyPEM
	}
	return pub, nil
}
