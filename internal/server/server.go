// Package server provides the HTTP server and routing for Satellite.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/config"
	"github.com/aristath/satellite/internal/di"
	allocationhandlers "github.com/aristath/satellite/internal/modules/allocation/handlers"
	dailycheckhandlers "github.com/aristath/satellite/internal/modules/dailycheck/handlers"
	portfoliohandlers "github.com/aristath/satellite/internal/modules/portfolio/handlers"
	usagehandlers "github.com/aristath/satellite/internal/modules/usage/handlers"
	backuphandlers "github.com/aristath/satellite/internal/reliability/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	container *di.Container
	resp      *api.Responder
	startedAt time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	resp := cfg.Container.Responder
	if resp == nil {
		resp = api.NewResponder(cfg.Config.DevMode, cfg.Log)
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		resp:      resp,
		startedAt: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket streams are long-lived
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(api.Timing)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Link", "X-Request-Id"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	c := s.container

	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleMethodNotAllowed)

	s.router.With(middleware.Timeout(10*time.Second)).Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// registered before the timeout middleware, the stream outlives any request deadline
		streamHandler := NewEventsStreamHandler(c.EventBus, s.log)
		r.Get("/events/ws", streamHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			portfoliohandlers.NewHandler(c.PortfolioService, s.resp, s.log).RegisterRoutes(r)
			dailycheckhandlers.NewHandler(c.DailyCheckService, s.resp, s.log).RegisterRoutes(r)
			usagehandlers.NewHandler(c.UsageTracker, s.resp, s.log).RegisterRoutes(r)
			allocationhandlers.NewHandler(c.AllocationService, s.resp, s.log).RegisterRoutes(r)

			if c.BackupService != nil {
				backuphandlers.NewHandler(c.BackupService, s.resp, s.log).RegisterRoutes(r)
			}

			systemHandlers := NewSystemHandlers(c, s.resp, s.startedAt, s.log)
			r.Get("/system/status", systemHandlers.HandleSystemStatus)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
