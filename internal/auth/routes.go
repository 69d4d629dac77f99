package auth

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes wires the session endpoints. Login is public; logout and me
// require (or tolerate, for logout) an authenticated principal.
func MountRoutes(r chi.Router, h *Handler, mw *Middleware) {
	r.Post("/login", h.login)
	r.With(mw.AuthenticateOptional).Post("/logout", h.logout)
	r.With(mw.Authenticate).Get("/me", h.me)
}
