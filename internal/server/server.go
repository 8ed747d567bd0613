// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the entire dependency chain
//
//	sqlite.DB → services → handlers → routes
//
// is wired here, in one place, rather than scattered across the codebase.
// main.go stays minimal — read config, build the assistant client, start.
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

	"github.com/sakif/code-mentor/internal/assistant"
	"github.com/sakif/code-mentor/internal/auth"
	"github.com/sakif/code-mentor/internal/handler"
	"github.com/sakif/code-mentor/internal/middleware"
	sqliteRepo "github.com/sakif/code-mentor/internal/repository/sqlite"
	"github.com/sakif/code-mentor/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router, the database connection, and the HTTP lifecycle.
// The DB is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server, opening the database and wiring all routes.
// The assistant is injected so main can decide how it's configured and tests
// can pass a fake.
func New(cfg Config, logger *slog.Logger, a assistant.Assistant) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(a); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the configured router, mainly for tests that drive the
// server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start does this itself on shutdown; Close is
// for callers that use Handler directly and never call Start.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware, builds the dependency graph, and binds
// handlers to routes.
//
// ROUTE TABLE:
//
//	POST   /api/auth/register     public
//	POST   /api/auth/login        public
//	POST   /api/code-assist       bearer token
//	GET    /api/history           bearer token
//	GET    /api/history/{id}      bearer token
//	DELETE /api/history/{id}      bearer token
//	DELETE /api/history/clear     bearer token
func (s *Server) setupRoutes(a assistant.Assistant) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	sessionService := service.NewSessionService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	assistHandler := handler.NewAssistHandler(a, sessionService, s.logger)
	historyHandler := handler.NewHistoryHandler(sessionService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})

		// Protected routes share one RequireAuth instance.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, s.logger))

			r.Post("/code-assist", assistHandler.HandleAssist)

			r.Route("/history", func(r chi.Router) {
				r.Get("/", historyHandler.HandleList)
				// Static segment must be declared alongside the {id}
				// parameter; chi matches "clear" before the wildcard.
				r.Delete("/clear", historyHandler.HandleClear)
				r.Get("/{id}", historyHandler.HandleGet)
				r.Delete("/{id}", historyHandler.HandleDelete)
			})
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s to
// drain, close the database (flushes WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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
