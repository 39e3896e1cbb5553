package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/studydeck/api/internal/api"
	apiMiddleware "github.com/studydeck/api/internal/api/middleware"
	"github.com/studydeck/api/internal/config"
	"github.com/studydeck/api/internal/domain/srs"
	"github.com/studydeck/api/internal/platform/postgres"
	"github.com/studydeck/api/internal/service"
	"github.com/studydeck/api/internal/service/auth"
	"github.com/studydeck/api/internal/service/review"
	"github.com/studydeck/api/internal/store"
)

// application holds the server's wired dependencies.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	deckStore store.DeckStore

	jwtService     auth.JWTService
	passwordHasher auth.PasswordHasher
	deckService    service.DeckService
	reviewService  review.DeckReviewService

	authHandler    *api.AuthHandler
	deckHandler    *api.DeckHandler
	reviewHandler  *api.ReviewHandler
	authMiddleware *apiMiddleware.AuthMiddleware
}

// newApplication wires stores, services and handlers from the given
// configuration and database handle.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	userStore := postgres.NewPostgresUserStore(db, logger)
	deckStore := postgres.NewPostgresDeckStore(db, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, err
	}
	passwordHasher := auth.NewBcryptHasher()

	deckService := service.NewDeckService(deckStore, db, logger)
	reviewService := review.NewDeckReviewService(deckStore, srs.NewScheduler(), logger)

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,

		userStore: userStore,
		deckStore: deckStore,

		jwtService:     jwtService,
		passwordHasher: passwordHasher,
		deckService:    deckService,
		reviewService:  reviewService,

		authHandler:    api.NewAuthHandler(userStore, jwtService, passwordHasher),
		deckHandler:    api.NewDeckHandler(deckService, logger),
		reviewHandler:  api.NewReviewHandler(reviewService, logger),
		authMiddleware: apiMiddleware.NewAuthMiddleware(jwtService),
	}

	return app, nil
}

// Run starts the HTTP server and blocks until shutdown completes.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	router := app.setupRouter()
	return startHTTPServer(ctx, app.config, app.logger, router)
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}
