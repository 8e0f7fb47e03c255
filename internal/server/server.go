// Package server assembles the HTTP server: router, middleware, and every
// route definition.
//
// This is the composition root. main.go reads configuration and hands it
// here; New builds the whole dependency graph in one place — platform
// client, stores, services, bridges, handlers — and each layer receives
// only what it needs. The handler never touches the platform client; the
// services never see HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/gardenhub/internal/auth"
	"github.com/sakif/gardenhub/internal/handler"
	"github.com/sakif/gardenhub/internal/identity"
	"github.com/sakif/gardenhub/internal/middleware"
	"github.com/sakif/gardenhub/internal/planner"
	"github.com/sakif/gardenhub/internal/plants"
	"github.com/sakif/gardenhub/internal/repository/postgrest"
	sqliteRepo "github.com/sakif/gardenhub/internal/repository/sqlite"
	"github.com/sakif/gardenhub/internal/service"
	"github.com/sakif/gardenhub/internal/supabase"
)

// Config carries everything the server needs to start. All of it comes
// from the environment; see cmd/server/main.go for the variable names.
type Config struct {
	Port int

	// AllowedOrigin is the frontend origin permitted by CORS.
	AllowedOrigin string

	Supabase supabase.Config

	// JWTCoordX and JWTCoordY are the base64url coordinates of the
	// project's ES256 signing key, straight from the platform dashboard.
	JWTCoordX string
	JWTCoordY string

	Houseplants plants.HouseplantsConfig
	Perenual    plants.PerenualConfig

	GeminiAPIKey string

	// CachePath is the SQLite file holding cached plant lookups.
	CachePath string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	cache  *sqliteRepo.DB // plant-lookup cache, closed on shutdown
}

// New wires the full dependency graph and registers all routes. Any
// missing credential fails here, at startup, rather than as a 500 on the
// first request that needs it.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	cache, err := sqliteRepo.New(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("opening plant cache: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		cache:  cache,
	}

	if err := s.setupRoutes(); err != nil {
		cache.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes configures middleware, builds every handler, and maps the
// route table.
//
// ROUTE STRUCTURE:
//
//	GET    /                                         → health/welcome
//	POST   /api/v1/auth/signup                       → register
//	POST   /api/v1/auth/login                        → sign in
//	GET    /api/v1/plants?name=&type=                → plant search (public)
//	GET    /api/v1/forum/posts                       → recent posts (public)
//	GET    /api/v1/forum/posts/{postID}/comments     → comments (public)
//	GET    /api/v1/profile                           → account info
//	PUT    /api/v1/profile/email                     → change email
//	PUT    /api/v1/profile/password                  → change password
//	--- below require a verified bearer token ---
//	GET    /api/v1/collections                       → list collections
//	POST   /api/v1/collections                       → save a plant
//	POST   /api/v1/collections/create                → create empty collection
//	PUT    /api/v1/collections/rename                → rename collection
//	DELETE /api/v1/collections/container/{name}      → delete collection
//	DELETE /api/v1/collections/{plantID}             → delete one plant
//	POST   /api/v1/forum/posts                       → create post
//	POST   /api/v1/forum/posts/{postID}/comments     → create comment
//	POST   /api/v1/ai/plan                           → generate garden plan
//
// The profile routes sit outside the RequireAuth group on purpose: they
// forward the raw token to the auth platform for introspection instead of
// verifying it locally, so revoked sessions are refused.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	allowedOrigin := s.config.AllowedOrigin
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// === Platform clients and bridges ===
	platform, err := supabase.New(s.config.Supabase, s.logger)
	if err != nil {
		return fmt.Errorf("creating platform client: %w", err)
	}

	verifier, err := auth.NewVerifier(s.config.JWTCoordX, s.config.JWTCoordY)
	if err != nil {
		return fmt.Errorf("creating token verifier: %w", err)
	}

	bridge, err := identity.NewBridge(s.config.Supabase, s.logger)
	if err != nil {
		return fmt.Errorf("creating identity bridge: %w", err)
	}

	houseplants, err := plants.NewHouseplants(s.config.Houseplants, s.logger)
	if err != nil {
		return fmt.Errorf("creating houseplants provider: %w", err)
	}
	perenual, err := plants.NewPerenual(s.config.Perenual, s.logger)
	if err != nil {
		return fmt.Errorf("creating perenual provider: %w", err)
	}

	gardenPlanner, err := planner.New(planner.Config{APIKey: s.config.GeminiAPIKey}, s.logger)
	if err != nil {
		return fmt.Errorf("creating planner: %w", err)
	}

	// === Services ===
	collectionStore := postgrest.NewCollectionStore(platform)
	forumStore := postgrest.NewForumStore(platform)

	collectionService := service.NewCollectionService(collectionStore, s.logger)
	forumService := service.NewForumService(forumStore, s.logger)
	plantService := plants.NewService(houseplants, perenual, s.cache, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(bridge, s.logger)
	collectionHandler := handler.NewCollectionHandler(collectionService, s.logger)
	forumHandler := handler.NewForumHandler(forumService, s.logger)
	plantHandler := handler.NewPlantHandler(plantService, s.logger)
	plannerHandler := handler.NewPlannerHandler(gardenPlanner, s.logger)
	profileHandler := handler.NewProfileHandler(bridge, s.logger)

	s.router.Get("/", handler.HandleWelcome)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Public surface
		r.Post("/auth/signup", authHandler.HandleSignUp)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/plants", plantHandler.HandleSearch)
		r.Get("/forum/posts", forumHandler.HandleListPosts)
		r.Get("/forum/posts/{postID}/comments", forumHandler.HandleListComments)

		// Introspection-based account routes
		r.Get("/profile", profileHandler.HandleGet)
		r.Put("/profile/email", profileHandler.HandleUpdateEmail)
		r.Put("/profile/password", profileHandler.HandleUpdatePassword)

		// Locally-verified protected surface
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(verifier, s.logger))

			r.Get("/collections", collectionHandler.HandleList)
			r.Post("/collections", collectionHandler.HandleSave)
			r.Post("/collections/create", collectionHandler.HandleCreate)
			r.Put("/collections/rename", collectionHandler.HandleRename)
			r.Delete("/collections/container/{name}", collectionHandler.HandleDeleteContainer)
			r.Delete("/collections/{plantID}", collectionHandler.HandleDeletePlant)

			r.Post("/forum/posts", forumHandler.HandleCreatePost)
			r.Post("/forum/posts/{postID}/comments", forumHandler.HandleCreateComment)

			r.Post("/ai/plan", plannerHandler.HandlePlan)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests (30s), close the
// plant cache so the WAL is flushed.
func (s *Server) Start() error {
	defer s.cache.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // plan generation can take tens of seconds
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("platform", s.config.Supabase.BaseURL),
			slog.String("cache", s.config.CachePath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
