package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-studygen/internal/api"
	apiMiddleware "github.com/phrazzld/scry-studygen/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger, app.tracerProvider))

	sessionHandler, err := api.NewSessionHandler(app.sessions, app.tokens, app.emitter, app.logger)
	if err != nil {
		return nil, err
	}
	auth := apiMiddleware.NewSessionAuth(app.tokens)

	r.Route("/api", func(r chi.Router) {
		sessionHandler.RegisterRoutes(r, auth)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r, nil
}
