package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Env:          "dev",
		Port:         8080,
		Issuer:       "pizzeria-api",
		Audience:     "pizzeria-app",
		JWTAlgorithm: "HS256",
		JWTSecret:    strings.Repeat("s", 32),
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   7 * 24 * time.Hour,
	}
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	t.Parallel()
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsShortSecret(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.JWTSecret = "too short"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateRejectsInvertedTTLs(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.AccessTTL = 48 * time.Hour
	cfg.RefreshTTL = time.Hour

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_ACCESS_TTL")
}

func TestValidateRS256RequiresKeyMaterial(t *testing.T) {
	t.Parallel()

	t.Run("missing private key", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTAlgorithm = "RS256"
		cfg.JWTPublicKeyFile = "/etc/pizzeria/jwt.pub"

		err := cfg.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "JWT_PRIVATE_KEY_FILE")
	})

	t.Run("no verification key source", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTAlgorithm = "RS256"
		cfg.JWTPrivateKeyFile = "/etc/pizzeria/jwt.key"

		err := cfg.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "JWT_PUBLIC_KEY_FILE")
	})

	t.Run("local public key suffices", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTAlgorithm = "RS256"
		cfg.JWTPrivateKeyFile = "/etc/pizzeria/jwt.key"
		cfg.JWTPublicKeyFile = "/etc/pizzeria/jwt.pub"

		require.NoError(t, cfg.Validate())
	})

	t.Run("sso key set suffices", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTAlgorithm = "RS256"
		cfg.JWTPrivateKeyFile = "/etc/pizzeria/jwt.key"
		cfg.SSO.Enabled = true
		cfg.SSO.IssuerURL = "https://idp.example.com"
		cfg.SSO.ClientID = "pizzeria"
		cfg.SSO.ClientSecret = "hunter2hunter2"
		cfg.SSO.AuthURL = "https://idp.example.com/auth"
		cfg.SSO.TokenURL = "https://idp.example.com/token"
		cfg.SSO.UserInfoURL = "https://idp.example.com/userinfo"
		cfg.SSO.JWKSURL = "https://idp.example.com/jwks"

		require.NoError(t, cfg.Validate())
	})
}

func TestValidateRejectsUnknownAlgorithm(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.JWTAlgorithm = "none"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_ALGORITHM")
}

func TestValidateSSORequiresEndpoints(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.SSO.Enabled = true
	cfg.SSO.IssuerURL = "https://idp.example.com"
	cfg.SSO.ClientID = "pizzeria"
	// secret and endpoint URLs missing

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "SSO_CLIENT_SECRET")
	require.Contains(t, err.Error(), "SSO_TOKEN_URL")
	require.NotContains(t, err.Error(), "SSO_CLIENT_ID")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.JWTSecret = ""
	cfg.Port = 0
	cfg.Issuer = ""

	err := cfg.Validate()
	require.Error(t, err)
	// All failures surface at once rather than one per restart.
	require.Contains(t, err.Error(), "JWT_SECRET")
	require.Contains(t, err.Error(), "PORT")
	require.Contains(t, err.Error(), "JWT_ISSUER")
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "pizzeria-api", cfg.Issuer)
	require.Equal(t, "HS256", cfg.JWTAlgorithm)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.False(t, cfg.SSO.Enabled)
	require.Equal(t, "http://localhost:8080/auth/sso/callback", cfg.SSO.RedirectURI)
}

func TestLoadConfigReadsEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SSO_ENABLED", "true")
	t.Setenv("JWT_ACCESS_TTL", "5m")

	cfg := LoadConfig()
	require.Equal(t, 9090, cfg.Port)
	require.True(t, cfg.SSO.Enabled)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
}
