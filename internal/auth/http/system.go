package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Aurfi/pizzeria/pkg/httpx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

// Pinger is anything whose availability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// HealthzHandler answers liveness probes. It says nothing about
// dependencies, only that the process is serving.
func HealthzHandler(startTime time.Time, version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Version: version,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
		})
	})
}

// ReadyzHandler answers readiness probes: 503 until every dependency pings.
func ReadyzHandler(startTime time.Time, version string, deps map[string]Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				slogx.FromContext(r.Context()).Warn("readiness check failed", "dep", name, "err", err)
				httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
					Status:  "unavailable",
					Version: version,
					Uptime:  time.Since(startTime).Round(time.Second).String(),
				})
				return
			}
		}

		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ready",
			Version: version,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
		})
	})
}

// DashboardHandler handles GET /admin/dashboard, the staff landing route.
// The interesting part is the gate in front of it; the body is a stub for
// the back-office frontend to build on.
func DashboardHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}

		httpx.WriteJSON(w, http.StatusOK, struct {
			User       userView `json:"user"`
			ServerTime string   `json:"server_time"`
		}{
			User:       viewOf(u),
			ServerTime: time.Now().UTC().Format(time.RFC3339),
		})
	})
}
