// Package api is the admin HTTP surface of the portal server.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udisondev/portalgo/internal/game/portal"
	"github.com/udisondev/portalgo/internal/world"
)

// PortalSource is the registry view the API reads from.
type PortalSource interface {
	All(ctx context.Context) ([]*portal.Portal, error)
	Get(ctx context.Context, id uuid.UUID) (*portal.Portal, error)
}

// WorldSource lists and resolves running worlds.
type WorldSource interface {
	Worlds() []*world.World
	World(id uuid.UUID) *world.World
}

// RouterConfig contains the dependencies of the router.
type RouterConfig struct {
	// Portals is the portal registry (required).
	Portals PortalSource

	// Worlds enables the world and player routes when set.
	Worlds WorldSource

	// Gatherer enables GET /metrics when set.
	Gatherer prometheus.Gatherer

	// CORSOrigins allowed to call the API. Nil means same-origin only.
	CORSOrigins []string

	// DisableLogging turns off the request log (tests).
	DisableLogging bool
}

type handlers struct {
	portals PortalSource
	worlds  WorldSource
}

// NewRouter builds the HTTP router. It starts nothing, so it can be served by
// httptest directly.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if !cfg.DisableLogging {
		r.Use(requestLogger)
	}
	r.Use(middleware.Recoverer)

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "If-None-Match"},
			ExposedHeaders: []string{"ETag"},
		}))
	}

	h := &handlers{portals: cfg.Portals, worlds: cfg.Worlds}

	r.Get("/healthz", h.handleHealth)

	r.Route("/portals", func(r chi.Router) {
		r.Get("/", h.handleListPortals)
		r.Get("/{id}", h.handleGetPortal)
	})

	if cfg.Worlds != nil {
		r.Get("/worlds", h.handleListWorlds)
		r.Post("/worlds/{id}/players", h.handleSpawnPlayer)
		r.Put("/worlds/{id}/players/{player}/position", h.handleMovePlayer)
	}

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
