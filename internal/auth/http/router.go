package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/service"
	"github.com/Aurfi/pizzeria/internal/auth/store"
	"github.com/Aurfi/pizzeria/internal/cache"
	"github.com/Aurfi/pizzeria/pkg/httpx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	logger       *slog.Logger
	buildVersion string
	startTime    time.Time
	secure       bool

	TokenService *service.TokenService
	UserService  *service.UserService
	RoleService  *service.RoleService
	SSOService   *service.SSOService

	Users     store.Users
	Blacklist store.Blacklist
	Cache     *cache.Cache
	Menu      MenuSource
	Limiter   httpx.Limiter

	// ReadyDeps are pinged by /readyz, keyed by a short label.
	ReadyDeps map[string]Pinger
}

// Options carries the knobs NewRouter needs beyond the services themselves.
type Options struct {
	Logger       *slog.Logger
	BuildVersion string

	// Secure marks provisioned cookies Secure. On behind TLS.
	Secure bool
}

func NewRouter(opts Options) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		logger:       opts.Logger,
		buildVersion: opts.BuildVersion,
		startTime:    time.Now(),
		secure:       opts.Secure,
		ReadyDeps:    map[string]Pinger{},
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CSRFMiddleware(httpx.CSRFConfig{
			// Token-less entry points. Everything else double-submits.
			SkipPaths: []string{
				"/auth/register",
				"/auth/login",
				"/auth/refresh",
			},
			Secure:       opts.Secure,
			CookieMaxAge: 12 * 60 * 60,
		}),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSSO()
	r.registerMenu()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
		Users:        r.Users,
	}

	authn := httpx.AuthnMiddleware(r.TokenService, r.Blacklist)
	throttled := httpx.RateLimitMiddleware(r.Limiter, "auth")

	// Credential endpoints take the brute-force throttle.
	r.Mux.Handle("POST /auth/register", httpx.Chain(http.HandlerFunc(h.HandleRegister), throttled))
	r.Mux.Handle("POST /auth/login", httpx.Chain(http.HandlerFunc(h.HandleLogin), throttled))
	r.Mux.Handle("POST /auth/refresh", httpx.Chain(http.HandlerFunc(h.HandleRefresh), throttled))

	r.Mux.Handle("POST /auth/logout", httpx.Chain(http.HandlerFunc(h.HandleLogout), authn))
	r.Mux.Handle("GET /auth/me", httpx.Chain(http.HandlerFunc(h.HandleMe), authn))
}

func (r *Router) registerSSO() {
	h := &SSOHandler{SSO: r.SSOService, Secure: r.secure}

	throttled := httpx.RateLimitMiddleware(r.Limiter, "sso")
	r.Mux.Handle("GET /auth/sso/login", httpx.Chain(http.HandlerFunc(h.HandleLogin), throttled))
	r.Mux.Handle("GET /auth/sso/callback", httpx.Chain(http.HandlerFunc(h.HandleCallback), throttled))
}

func (r *Router) registerMenu() {
	h := &MenuHandler{Cache: r.Cache, Source: r.Menu}
	r.Mux.Handle("GET /menu", http.HandlerFunc(h.HandleGet))
}

func (r *Router) registerAdmin() {
	authn := httpx.AuthnMiddleware(r.TokenService, r.Blacklist)

	menu := &MenuHandler{Cache: r.Cache, Source: r.Menu}
	r.Mux.Handle("POST /admin/menu/refresh", httpx.Chain(
		http.HandlerFunc(menu.HandleRefresh),
		authn,
		RequireRole(r.RoleService, domain.RoleAdmin, domain.RoleOwner),
	))

	r.Mux.Handle("GET /admin/dashboard", httpx.Chain(
		DashboardHandler(),
		authn,
		RequireRole(r.RoleService, domain.RoleStaff, domain.RoleAdmin, domain.RoleOwner),
	))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /healthz", HealthzHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.ReadyDeps))
}
