package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Aurfi/pizzeria/internal/auth/service"
	"github.com/Aurfi/pizzeria/pkg/jwtx"
)

type Config struct {
	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)
	BaseURL   string // Public base URL, used for the SSO redirect (default: http://localhost:8080)

	Issuer   string // iss claim on minted tokens (default: pizzeria-api)
	Audience string // aud claim on minted tokens (default: pizzeria-app)

	JWTAlgorithm      string        // Signing algorithm, HS256 or RS256 (default: HS256)
	JWTSecret         string        // HMAC secret for HS256, 32+ bytes
	JWTPrivateKeyFile string        // PEM private key for RS256 signing
	JWTPublicKeyFile  string        // PEM public key for RS256 verification; optional when the SSO JWKS endpoint covers it
	JWTKeyID          string        // kid header stamped on RS256 tokens (default: local)
	AccessTTL         time.Duration // Access token lifetime (default: 15m)
	RefreshTTL        time.Duration // Refresh token lifetime (default: 168h)

	DatabaseFile string // Path to the SQLite user database (default: ./pizzeria.db)

	RedisAddr     string // Optional: host:port; empty falls back to in-process stores
	RedisPassword string
	RedisDB       int

	SSO service.SSOConfig

	RateLimit  int64         // Hits per window per client on auth routes (default: 20)
	RateWindow time.Duration // Rate limit window (default: 1m)

	SecureCookies       bool          // Mark cookies Secure; on for prod (default: Env == "prod")
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	cfg := Config{
		Env:       env,
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),
		BaseURL:   getEnvOrDefault("BASE_URL", "http://localhost:8080"),

		Issuer:   getEnvOrDefault("JWT_ISSUER", "pizzeria-api"),
		Audience: getEnvOrDefault("JWT_AUDIENCE", "pizzeria-app"),

		JWTAlgorithm:      getEnvOrDefault("JWT_ALGORITHM", "HS256"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTPrivateKeyFile: os.Getenv("JWT_PRIVATE_KEY_FILE"),
		JWTPublicKeyFile:  os.Getenv("JWT_PUBLIC_KEY_FILE"),
		JWTKeyID:          getEnvOrDefault("JWT_KEY_ID", "local"),
		AccessTTL:         getEnvDurationOrDefault("JWT_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:        getEnvDurationOrDefault("JWT_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "pizzeria.db"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		SSO: service.SSOConfig{
			Enabled:      getEnvBoolOrDefault("SSO_ENABLED", false),
			Provider:     getEnvOrDefault("SSO_PROVIDER", "sso"),
			IssuerURL:    os.Getenv("SSO_ISSUER_URL"),
			ClientID:     os.Getenv("SSO_CLIENT_ID"),
			ClientSecret: os.Getenv("SSO_CLIENT_SECRET"),
			AuthURL:      os.Getenv("SSO_AUTH_URL"),
			TokenURL:     os.Getenv("SSO_TOKEN_URL"),
			UserInfoURL:  os.Getenv("SSO_USERINFO_URL"),
			JWKSURL:      os.Getenv("SSO_JWKS_URL"),
		},

		RateLimit:  int64(getEnvIntOrDefault("RATE_LIMIT", 20)),
		RateWindow: getEnvDurationOrDefault("RATE_WINDOW", time.Minute),

		SecureCookies:       getEnvBoolOrDefault("SECURE_COOKIES", env == "prod"),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// The redirect lands back on our own callback route.
	cfg.SSO.RedirectURI = getEnvOrDefault("SSO_REDIRECT_URI", cfg.BaseURL+"/auth/sso/callback")

	return cfg
}

// Validate rejects configurations the service cannot run with. Called once
// at startup; a bad config kills the process before it binds a port.
func (c Config) Validate() error {
	var errs []error

	switch c.JWTAlgorithm {
	case "HS256":
		if len(c.JWTSecret) < jwtx.MinHMACSecretLen {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", jwtx.MinHMACSecretLen))
		}
	case "RS256":
		if c.JWTPrivateKeyFile == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_FILE is required when JWT_ALGORITHM=RS256"))
		}
		// Verification needs a key source: a local public key, or the SSO
		// provider's key-set endpoint.
		if c.JWTPublicKeyFile == "" && !(c.SSO.Enabled && c.SSO.JWKSURL != "") {
			errs = append(errs, errors.New("JWT_ALGORITHM=RS256 requires JWT_PUBLIC_KEY_FILE or an SSO_JWKS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm))
	}
	if c.Issuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER must not be empty"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be shorter than JWT_REFRESH_TTL"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	if c.SSO.Enabled {
		for name, v := range map[string]string{
			"SSO_ISSUER_URL":    c.SSO.IssuerURL,
			"SSO_CLIENT_ID":     c.SSO.ClientID,
			"SSO_CLIENT_SECRET": c.SSO.ClientSecret,
			"SSO_AUTH_URL":      c.SSO.AuthURL,
			"SSO_TOKEN_URL":     c.SSO.TokenURL,
			"SSO_USERINFO_URL":  c.SSO.UserInfoURL,
		} {
			if v == "" {
				errs = append(errs, fmt.Errorf("%s is required when SSO_ENABLED=true", name))
			}
		}
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
