// Package api exposes signals, the track record and run triggers over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	handler "github.com/newthinker/polyedge/internal/api/handler/api"
	"github.com/newthinker/polyedge/internal/api/job"
	"github.com/newthinker/polyedge/internal/api/middleware"
	"github.com/newthinker/polyedge/internal/api/response"
	"github.com/newthinker/polyedge/internal/metrics"
	"github.com/newthinker/polyedge/internal/storage/signal"
	"github.com/newthinker/polyedge/internal/trackrecord"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for PolyEdge
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string // defaults to /metrics
}

// Dependencies are the services the handlers read from.
type Dependencies struct {
	Store       signal.Repository
	TrackRecord *trackrecord.Service
	Runner      handler.Runner // optional, mounts the run triggers
	Runs        *job.Store
	Metrics     *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("api: store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.TrackRecord == nil {
		deps.TrackRecord = trackrecord.NewService(deps.Store)
	}

	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	mws := []func(http.Handler) http.Handler{
		middleware.Recover(logger),
		metrics.LoggingMiddleware(logger),
	}
	if deps.Metrics != nil {
		mws = append(mws, metrics.HTTPMiddleware(deps.Metrics))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	signals := handler.NewSignalsHandler(deps.Store)
	s.mux.HandleFunc("GET /api/v1/signals", signals.List)
	s.mux.HandleFunc("GET /api/v1/signals/{id}", signals.GetByID)

	record := handler.NewTrackRecordHandler(deps.TrackRecord)
	s.mux.HandleFunc("GET /api/v1/track-record", record.Summary)
	s.mux.HandleFunc("GET /api/v1/track-record/history", record.History)
	s.mux.HandleFunc("GET /api/v1/track-record/export", record.Export)

	markets := handler.NewMarketsHandler(deps.Store)
	s.mux.HandleFunc("GET /api/v1/markets", markets.List)
	s.mux.HandleFunc("GET /api/v1/markets/{id}", markets.GetByID)

	// Run triggers mutate state and sit behind the API key.
	if deps.Runner != nil {
		runs := handler.NewRunsHandler(deps.Runner, deps.Runs)
		s.mux.HandleFunc("GET /api/v1/runs", runs.List)
		s.mux.HandleFunc("GET /api/v1/runs/{id}", runs.Get)

		auth := middleware.APIKeyAuth(cfg.APIKey)
		s.mux.Handle("POST /api/v1/runs/generate", auth(http.HandlerFunc(runs.Generate)))
		s.mux.Handle("POST /api/v1/runs/track", auth(http.HandlerFunc(runs.Track)))
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
