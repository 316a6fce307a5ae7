package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wikigraph/internal/graphservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *graphservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/stats", h.Stats)

	// Pages.
	r.Get("/pages", h.ListPages)
	r.Get("/pages/*", h.GetPage)
	r.Get("/links/*", h.Links)
	r.Get("/backlinks/*", h.Backlinks)
	r.Get("/resolve", h.Resolve)

	// Graph and reports.
	r.Get("/graph", h.Graph)
	r.Get("/rank", h.Rank)
	r.Get("/orphans", h.Orphans)
	r.Get("/wanted", h.Wanted)
	r.Get("/clusters", h.Clusters)
	r.Get("/namespaces", h.Namespaces)
	r.Get("/namespaces/empty", h.EmptyNamespaces)
	r.Get("/media", h.Media)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
