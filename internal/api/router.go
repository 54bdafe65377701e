package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Analysis.
	r.Get("/analysis", h.Analysis)
	r.Get("/analysis/report", h.Report)
	r.Get("/folders", h.Folders)

	// Per-note suggestions and LLM-backed discovery.
	r.Get("/notes/{name}/suggestions", h.Suggestions)
	r.Get("/discover", h.Discover)

	// Mutation (dry-run unless apply=true) and backup inspection.
	r.Post("/link", h.ApplyLinks)
	r.Get("/backups", h.Backups)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
