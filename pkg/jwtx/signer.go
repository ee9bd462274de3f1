package jwtx

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs a claim set into a compact JWT.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// MinHMACSecretLen is the shortest shared secret we accept for HS256.
// Anything shorter is brute-forceable and a configuration mistake.
const MinHMACSecretLen = 32

var (
	ErrWeakSecret = errors.New("jwtx: HMAC secret too short")
	ErrBadKeyPEM  = errors.New("jwtx: invalid key PEM")
)

type hs256Signer struct {
	secret []byte
}

// NewSignerHS256 creates an HS256 signer from a shared secret.
func NewSignerHS256(secret string) (Signer, error) {
	if len(secret) < MinHMACSecretLen {
		return nil, ErrWeakSecret
	}
	return &hs256Signer{secret: []byte(secret)}, nil
}

func (s *hs256Signer) Alg() string { return "HS256" }

func (s *hs256Signer) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

type rs256Signer struct {
	kid string
	key *rsa.PrivateKey
}

// NewSignerRS256 creates an RS256 signer from PEM bytes (PKCS1 or PKCS8).
func NewSignerRS256(kid string, pemKey []byte) (Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, ErrBadKeyPEM
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &rs256Signer{kid: kid, key: key}, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, ErrBadKeyPEM
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrBadKeyPEM
	}
	return &rs256Signer{kid: kid, key: key}, nil
}

func (s *rs256Signer) Alg() string { return "RS256" }

func (s *rs256Signer) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	if s.kid != "" {
		token.Header["kid"] = s.kid
	}
	return token.SignedString(s.key)
}
