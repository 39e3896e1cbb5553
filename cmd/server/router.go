package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/studydeck/api/internal/api/middleware"
)

// setupRouter builds the HTTP route tree.
func (app *application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", app.authHandler.Register)
		r.Post("/auth/login", app.authHandler.Login)

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(app.authMiddleware.Authenticate)

			r.Route("/decks", func(r chi.Router) {
				r.Post("/", app.deckHandler.CreateDeck)
				r.Get("/", app.deckHandler.ListDecks)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", app.deckHandler.GetDeck)
					r.Delete("/", app.deckHandler.DeleteDeck)
					r.Post("/cards", app.deckHandler.AddCards)
					r.Get("/review", app.reviewHandler.GetDueCards)
					r.Post("/cards/{cardID}/review", app.reviewHandler.SubmitGrade)
				})
			})
		})
	})

	return r
}
