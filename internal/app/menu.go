package app

import (
	"context"

	httpapi "github.com/Aurfi/pizzeria/internal/auth/http"
)

// staticMenuSource serves a compiled-in card. The menu system of record is a
// separate service; this stands in until its client is wired here, and keeps
// the read path and cache invalidation exercisable end to end.
type staticMenuSource struct{}

func (staticMenuSource) Menu(context.Context) (httpapi.Menu, error) {
	return httpapi.Menu{
		Version: 1,
		Categories: []httpapi.MenuCategory{
			{
				Name: "pizze classiche",
				Items: []httpapi.MenuItem{
					{ID: "p01", Name: "Margherita", Description: "tomato, fior di latte, basil", PriceCents: 1150, Available: true},
					{ID: "p02", Name: "Marinara", Description: "tomato, garlic, oregano", PriceCents: 950, Available: true},
					{ID: "p03", Name: "Diavola", Description: "tomato, mozzarella, spicy salami", PriceCents: 1350, Available: true},
					{ID: "p04", Name: "Quattro Formaggi", Description: "mozzarella, gorgonzola, taleggio, parmigiano", PriceCents: 1450, Available: true},
				},
			},
			{
				Name: "bibite",
				Items: []httpapi.MenuItem{
					{ID: "b01", Name: "Acqua frizzante", PriceCents: 300, Available: true},
					{ID: "b02", Name: "Chinotto", PriceCents: 400, Available: true},
				},
			},
		},
	}, nil
}
