package activityhttp

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the audit log endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/export", h.export)
	r.Get("/stats", h.stats)
	r.Delete("/cleanup", h.cleanup)
}
