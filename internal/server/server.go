// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware and
// routes, and decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads *config.Config and builds the logger, then calls New, which creates:
//
//	sqlite.DB ──→ AccountService ───────→ AuthHandler
//	          ├─→ DeckAuthoringService ─┬→ DeckHandler
//	          └─→ DeckAccessService ────┘
//	metrics.Metrics → request middleware, DeckAuthoringService, /metrics
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/flashcards/internal/auth"
	"github.com/sakif/flashcards/internal/config"
	"github.com/sakif/flashcards/internal/handler"
	"github.com/sakif/flashcards/internal/metrics"
	"github.com/sakif/flashcards/internal/middleware"
	sqliteRepo "github.com/sakif/flashcards/internal/repository/sqlite"
	"github.com/sakif/flashcards/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection (db). Start closes it on the way
// out; callers that never call Start (tests) call Close.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	tokens  *auth.TokenService
	metrics *metrics.Metrics
}

// New opens the database, builds every service and handler, and mounts the
// routes.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with the
// sqlite driver package.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		tokens:  tokens,
		metrics: metrics.New(),
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                → liveness + database ping
// GET    /metrics                → Prometheus exposition
// POST   /auth/register          → create account
// POST   /auth/login             → issue session token
// POST   /auth/logout            → clear session cookie
// GET    /api/me                 → current user          (auth)
// DELETE /api/me                 → delete account         (auth)
// GET    /api/decks              → list own decks         (auth)
// POST   /api/decks              → create deck with cards (auth)
// GET    /api/decks/{id}/cards   → deck cards             (auth)
// GET    /api/decks/{id}/study   → study session          (auth)
// DELETE /api/decks/{id}         → delete deck            (auth)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger and Metrics: see the final status, including recovered panics
// 4. Recoverer: catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)

	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)
	policy := service.AccessPolicy{EnforceOwnership: s.config.Access.EnforceOwnership}

	accounts := service.NewAccountService(s.db.Users(), passwords, s.logger)
	authoring := service.NewDeckAuthoringService(s.db, s.metrics, s.logger)
	access := service.NewDeckAccessService(s.db, policy, s.logger)

	authHandler := handler.NewAuthHandler(accounts, s.tokens, s.config.Auth.SecureCookie, s.logger)
	deckHandler := handler.NewDeckHandler(authoring, access, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	// === Protected Routes ===
	// RequireAuth rejects the request with 401 before any handler runs.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(s.tokens))

		r.Get("/me", authHandler.HandleMe)
		r.Delete("/me", authHandler.HandleDeleteMe)

		r.Get("/decks", deckHandler.HandleList)
		r.Post("/decks", deckHandler.HandleCreate)
		r.Delete("/decks/{id}", deckHandler.HandleDelete)
		r.Get("/decks/{id}/cards", deckHandler.HandleCards)
		r.Get("/decks/{id}/study", deckHandler.HandleStudy)
	})
}

// Handler exposes the router, mainly for tests driving it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it itself.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM or a listen
// error.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (server.shutdown_timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	// Start the server in a goroutine (so it doesn't block)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Database.Path),
			slog.Bool("enforce_ownership", s.config.Access.EnforceOwnership),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
