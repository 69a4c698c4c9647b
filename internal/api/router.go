package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultpress/internal/press"
	"github.com/starford/vaultpress/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// site is used to serve bundle files.
func NewRouter(svc *press.Service, authEnabled bool, token string, sseHandler http.Handler, site storage.Provider) chi.Router {
	h := NewHandler(svc)
	bh := NewBundleHandler(svc, site)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Conversion preview, no writes.
	r.Post("/convert", h.Convert)

	// Posts.
	r.Get("/posts", h.ListPosts)
	r.Post("/posts", h.CreatePost)
	r.Get("/posts/{slug}", h.GetPost)
	r.Delete("/posts/{slug}", h.DeletePost)

	// Batch migration and run history.
	r.Post("/migrate", h.Migrate)
	r.Get("/runs", h.ListRuns)

	// Bundle files.
	r.Get("/bundles/{slug}/{file}", bh.ServeFile)
	r.Post("/bundles/{slug}", bh.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
