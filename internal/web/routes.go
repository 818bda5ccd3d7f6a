// Package web provides the HTTP server for the sections page.
package web

import (
	"context"
	stdembed "embed"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/abdul-hamid-achik/masthead/internal/cms"
	"github.com/abdul-hamid-achik/masthead/internal/logging"
)

//go:embed static/*
var staticFS stdembed.FS

const shutdownTimeout = 10 * time.Second

// ServerConfig holds configuration for the web server.
type ServerConfig struct {
	Host    string
	Port    int
	Fetcher cms.Fetcher
	// Debounce delays live search requests in the browser.
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Server is the HTTP server for the sections page.
type Server struct {
	config  ServerConfig
	router  *chi.Mux
	handler *Handler
	log     zerolog.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		log:    logging.Component(cfg.Logger, "web"),
	}

	s.handler = NewHandler(cfg.Fetcher, cfg.Debounce)
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)

	// Request-scoped logger plus one access line per request.
	s.router.Use(hlog.NewHandler(s.log))
	s.router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the server.
func (s *Server) setupRoutes() {
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load static files")
	} else {
		s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	}

	s.router.Get("/", s.handler.Index)
	s.router.Get("/sections", s.handler.Overview)
	s.router.Get("/sections/results", s.handler.Results)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/sections", s.handler.APISections)
		r.Get("/search", s.handler.APISearch)
		r.Get("/health", s.handler.Health)
	})
}

// Router returns the chi router for external use.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the request handler, for reconfiguration on reload.
func (s *Server) Handler() *Handler {
	return s.handler
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", "http://"+s.Addr()).Msg("starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info().Msg("shutting down web server")
	return srv.Shutdown(shutdownCtx)
}
