// Package app wires configuration, storage, services, and the HTTP surface
// into a runnable server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/Aurfi/pizzeria/internal/auth/http"
	"github.com/Aurfi/pizzeria/internal/auth/service"
	"github.com/Aurfi/pizzeria/internal/auth/store"
	"github.com/Aurfi/pizzeria/internal/auth/store/drivers/memory"
	redisdriver "github.com/Aurfi/pizzeria/internal/auth/store/drivers/redis"
	"github.com/Aurfi/pizzeria/internal/auth/store/drivers/sqlite"
	"github.com/Aurfi/pizzeria/internal/cache"
	"github.com/Aurfi/pizzeria/internal/rate"
	"github.com/Aurfi/pizzeria/pkg/jwtx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// BuildVersion should be set at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the API server with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db  *sqlite.Store
	rdb *redis.Client

	tokenService *service.TokenService
	userService  *service.UserService
	roleService  *service.RoleService
	ssoService   *service.SSOService

	server *http.Server
	router *httpapi.Router
}

// New builds the application. The config must already be validated.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "pizzeria-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	sessions, blacklist := app.initKV(ctx)

	if err := app.initServices(ctx, sessions, blacklist); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP(blacklist)

	return app, nil
}

// Run starts the server and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("pizzeria api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and closes resources.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied")
	return nil
}

// initKV connects Redis when configured, otherwise falls back to the
// in-process stores. The fallback only suits a single instance: sessions and
// revocations don't survive a restart and aren't shared.
func (app *Application) initKV(ctx context.Context) (store.Sessions, store.Blacklist) {
	if app.cfg.RedisAddr == "" {
		app.logger.Warn("REDIS_ADDR not set, using in-process session stores")
		return memory.NewSessionStore(), memory.NewBlacklistStore()
	}

	app.rdb = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err := app.rdb.Ping(ctx).Err(); err != nil {
		// Sessions fail closed at the gate, so a dead Redis at boot is
		// worth knowing about immediately. Still boot; it may come up.
		app.logger.Error("redis unreachable at startup", "addr", app.cfg.RedisAddr, "err", err)
	}

	return redisdriver.NewSessionStore(app.rdb), redisdriver.NewBlacklistStore(app.rdb)
}

// initKeys builds the token signer and the local verifier for the configured
// algorithm. Validate has already guaranteed the key material is declared;
// this only has to load and parse it.
func (app *Application) initKeys(opts jwtx.VerifyOptions) (jwtx.Signer, jwtx.Verifier, error) {
	if app.cfg.JWTAlgorithm == "RS256" {
		pemKey, err := os.ReadFile(app.cfg.JWTPrivateKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt private key: %w", err)
		}
		signer, err := jwtx.NewSignerRS256(app.cfg.JWTKeyID, pemKey)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt signer: %w", err)
		}

		if app.cfg.JWTPublicKeyFile != "" {
			pubPEM, err := os.ReadFile(app.cfg.JWTPublicKeyFile)
			if err != nil {
				return nil, nil, fmt.Errorf("jwt public key: %w", err)
			}
			pub, err := jwtx.ParseRSAPublicKeyPEM(pubPEM)
			if err != nil {
				return nil, nil, fmt.Errorf("jwt public key: %w", err)
			}
			app.logger.Info("token signing configured", "alg", "RS256", "kid", app.cfg.JWTKeyID)
			return signer, jwtx.NewVerifierRS256(pub, opts), nil
		}

		// No local public key: our own tokens verify through the SSO
		// provider's key set.
		app.logger.Info("token signing configured", "alg", "RS256", "kid", app.cfg.JWTKeyID, "verify", "jwks")
		return signer, jwtx.NewRemoteVerifier(app.cfg.SSO.JWKSURL, opts), nil
	}

	signer, err := jwtx.NewSignerHS256(app.cfg.JWTSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("jwt signer: %w", err)
	}
	local, err := jwtx.NewVerifierHS256(app.cfg.JWTSecret, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("jwt verifier: %w", err)
	}
	return signer, local, nil
}

func (app *Application) initServices(ctx context.Context, sessions store.Sessions, blacklist store.Blacklist) error {
	opts := jwtx.VerifyOptions{
		Issuer:   app.cfg.Issuer,
		Audience: []string{app.cfg.Audience},
	}

	signer, local, err := app.initKeys(opts)
	if err != nil {
		return err
	}

	// Federated bearer tokens are only admitted when SSO is on and the
	// provider publishes a key set.
	var remote jwtx.Verifier
	if app.cfg.SSO.Enabled && app.cfg.SSO.JWKSURL != "" {
		remote = jwtx.NewRemoteVerifier(app.cfg.SSO.JWKSURL, opts)
		app.logger.Info("bearer verification delegated to remote JWKS", "url", app.cfg.SSO.JWKSURL)
	}

	app.tokenService = &service.TokenService{
		Signer:     signer,
		Local:      local,
		Remote:     remote,
		Sessions:   sessions,
		Blacklist:  blacklist,
		Issuer:     app.cfg.Issuer,
		Audience:   []string{app.cfg.Audience},
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.userService = &service.UserService{Store: app.db, Tokens: app.tokenService}
	app.roleService = &service.RoleService{Tokens: app.tokenService, Users: app.db.Users()}
	app.ssoService = service.NewSSOService(ctx, app.cfg.SSO, app.db, app.tokenService)

	if app.cfg.SSO.Enabled {
		app.logger.Info("sso bridge enabled", "provider", app.cfg.SSO.Provider)
	}
	return nil
}

func (app *Application) initHTTP(blacklist store.Blacklist) {
	router := httpapi.NewRouter(httpapi.Options{
		Logger:       app.logger,
		BuildVersion: BuildVersion,
		Secure:       app.cfg.SecureCookies,
	})

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.RoleService = app.roleService
	router.SSOService = app.ssoService
	router.Users = app.db.Users()
	router.Blacklist = blacklist
	router.Menu = staticMenuSource{}
	router.ReadyDeps["sqlite"] = app.db

	if app.rdb != nil {
		router.Cache = cache.New(cache.NewRedisBackend(app.rdb, "cache"))
		router.Limiter = rate.NewRedisLimiter(app.rdb, "rl", app.cfg.RateLimit, app.cfg.RateWindow)
		router.ReadyDeps["redis"] = redisPinger{app.rdb}
	} else {
		router.Cache = cache.New(cache.NewMemoryBackend())
		router.Limiter = rate.NewMemoryLimiter(app.cfg.RateLimit, app.cfg.RateWindow)
	}

	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }
