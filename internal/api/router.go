package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nerrad567/landarea-core/internal/panel"
)

// defaultWSPath is used when the WebSocket config leaves the path empty.
const defaultWSPath = "/ws"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(middleware.RequestSize(maxRequestBodySize))

	// Converter panel (embedded via go:embed, or served from disk in development)
	if s.panelCfg.Enabled {
		r.Handle("/panel/*", http.StripPrefix("/panel", panel.Handler(s.panelCfg.Dir)))
		r.Handle("/panel", http.RedirectHandler("/panel/", http.StatusMovedPermanently))
		r.Handle("/", http.RedirectHandler("/panel/", http.StatusFound))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// Catalog
		r.Get("/units", s.handleListUnits)
		r.Get("/regions", s.handleListRegions)
		r.Post("/catalog/refresh", s.handleRefreshCatalog)

		// One-shot conversion
		r.Get("/convert", s.handleConvertQuery)
		r.Post("/convert", s.handleConvertJSON)

		// Converter sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Patch("/", s.handleUpdateSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/swap", s.handleSwapSession)
				r.Post("/reset", s.handleResetSession)
			})
		})

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return defaultWSPath
	}
	return s.wsCfg.Path
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"catalog": s.registry.Source(),
	})
}
