// Package server exposes the engine over HTTP: triggering an on-demand
// valuation run, fetching the last cached result, a run-progress websocket
// stream, and a health endpoint — adapted from the teacher's
// internal/server/server.go chi.Mux wiring, scoped down to this engine's
// four concerns.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/saccr-engine/internal/cache"
	"github.com/aristath/saccr-engine/internal/events"
	"github.com/aristath/saccr-engine/internal/scheduler"
)

// Server is the engine's HTTP surface.
type Server struct {
	router *chi.Mux
	log    zerolog.Logger
	addr   string
}

// Config configures a Server.
type Config struct {
	Addr          string
	Log           zerolog.Logger
	Job           *scheduler.ValuationJob
	RunCache      *cache.RunCache
	Bus           *events.Bus
	StartupTime   time.Time
	DevMode       bool
}

// New builds a Server with routes wired against cfg's collaborators.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		addr:   cfg.Addr,
	}
	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes(cfg Config) {
	health := NewHealthHandler(cfg.StartupTime, s.log)
	runHandlers := NewRunHandlers(cfg.Job, cfg.RunCache, s.log)

	s.router.Get("/healthz", health.ServeHTTP)

	s.router.Route("/api", func(r chi.Router) {
		if cfg.Bus != nil {
			r.Get("/runs/progress", NewProgressStreamHandler(cfg.Bus, s.log).ServeHTTP)
		}
		r.Post("/runs", runHandlers.HandleTrigger)
		r.Get("/runs/last", runHandlers.HandleLast)
	})
}

// ListenAndServe starts the HTTP server; it blocks until the server stops or
// errors.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.addr).Msg("http server listening")
	return http.ListenAndServe(s.addr, s.router)
}

// Handler exposes the underlying chi.Mux, for tests driving requests via
// httptest without a real listener.
func (s *Server) Handler() http.Handler { return s.router }
