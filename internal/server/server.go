// Package server provides the HTTP front-end: the session API plus static
// serving of the browser UI.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zmachine-ai/zmachine-web/internal/game"
	"github.com/zmachine-ai/zmachine-web/internal/session"
	"github.com/zmachine-ai/zmachine-web/pkg/types"
)

// Config holds server configuration.
type Config struct {
	Port         int
	WebDir       string
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration. The write timeout is
// generous because a command response waits on an external process.
func DefaultConfig() *Config {
	return &Config{
		Port:         3000,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

// Sessions is the slice of the session service the handlers use.
type Sessions interface {
	Begin(ctx context.Context, gameID game.ID) (*session.BeginResult, error)
	Command(ctx context.Context, gameID game.ID, sessionID, text string) (*types.Output, error)
}

// Server is the HTTP server.
type Server struct {
	config   *Config
	router   *chi.Mux
	httpSrv  *http.Server
	games    *game.Registry
	sessions Sessions
}

// New creates a new Server instance.
func New(cfg *Config, games *game.Registry, sessions Sessions) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		games:    games,
		sessions: sessions,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Route("/api", func(r chi.Router) {
		r.Post("/new-game", s.newGame)
		r.Post("/command", s.command)
		r.Get("/games", s.listGames)
	})

	r.Get("/healthz", s.health)

	// Browser UI, when bundled alongside the server.
	if s.config.WebDir != "" {
		if info, err := os.Stat(s.config.WebDir); err == nil && info.IsDir() {
			fileServer := http.FileServer(http.Dir(s.config.WebDir))
			r.Handle("/*", fileServer)
		}
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
