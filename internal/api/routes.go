package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/scry-studygen/internal/api/middleware"
)

// RegisterRoutes mounts the session endpoints under r.
func (h *SessionHandler) RegisterRoutes(r chi.Router, auth *middleware.SessionAuth) {
	r.Post("/sessions", h.CreateSession)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/session", h.GetSession)
		r.Delete("/session", h.DeleteSession)
		r.Post("/session/submit", h.Submit)
		r.Post("/session/select", h.Select)
		r.Post("/session/reveal", h.Reveal)
		r.Post("/session/cancel", h.Cancel)
	})

	r.With(auth.AuthenticateStream).Get("/session/stream", h.Stream)
}
