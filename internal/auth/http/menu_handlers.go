package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Aurfi/pizzeria/internal/cache"
	"github.com/Aurfi/pizzeria/pkg/httpx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

const (
	menuCacheKey = "menu:current"
	menuCacheTag = "menu"
	menuCacheTTL = 5 * time.Minute
)

// Menu is the public card: categories of items with prices in cents. The
// menu system of record lives elsewhere; this API only reads it.
type Menu struct {
	Version    int            `json:"version"`
	Categories []MenuCategory `json:"categories"`
}

type MenuCategory struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int    `json:"price_cents"`
	Available   bool   `json:"available"`
}

// MenuSource loads the current menu from the system of record.
type MenuSource interface {
	Menu(ctx context.Context) (Menu, error)
}

// MenuHandler serves the cached public menu read and the staff-side
// invalidation.
type MenuHandler struct {
	Cache  *cache.Cache
	Source MenuSource
}

// HandleGet handles GET /menu: read-through cache, falling back to the
// source of record on a miss.
func (h *MenuHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var m Menu
	if err := h.Cache.Get(ctx, menuCacheKey, &m); err == nil {
		w.Header().Set("X-Cache", "hit")
		writeMenu(w, m)
		return
	}

	m, err := h.Source.Menu(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("menu load failed", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "menu_unavailable", "the menu cannot be loaded right now")
		return
	}

	h.Cache.SetWithTags(ctx, menuCacheKey, m, menuCacheTTL, menuCacheTag)
	w.Header().Set("X-Cache", "miss")
	writeMenu(w, m)
}

// HandleRefresh handles POST /admin/menu/refresh: drops every cached menu
// entry so the next read hits the system of record. Admin and owner only.
func (h *MenuHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.Cache.InvalidateTag(ctx, menuCacheTag)

	u, _ := UserFromContext(ctx)
	slogx.FromContext(ctx).Info("menu cache invalidated", "user_id", u.ID)
	w.WriteHeader(http.StatusNoContent)
}

// writeMenu skips the usual no-store headers: the menu is public and
// briefly cacheable by clients.
func writeMenu(w http.ResponseWriter, m Menu) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(m)
}
