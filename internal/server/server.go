// Package server provides the HTTP server and routing for Steward.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/steward/internal/config"
	"github.com/aristath/steward/internal/di"
	anomalyhandlers "github.com/aristath/steward/internal/modules/anomaly/handlers"
	budgethandlers "github.com/aristath/steward/internal/modules/budget/handlers"
	currencyhandlers "github.com/aristath/steward/internal/modules/currency/handlers"
	historyhandlers "github.com/aristath/steward/internal/modules/history/handlers"
	holdingshandlers "github.com/aristath/steward/internal/modules/holdings/handlers"
	ledgerhandlers "github.com/aristath/steward/internal/modules/ledger/handlers"
	networthhandlers "github.com/aristath/steward/internal/modules/networth/handlers"
	settingshandlers "github.com/aristath/steward/internal/modules/settings/handlers"
	snapshotshandlers "github.com/aristath/steward/internal/modules/snapshots/handlers"
	"github.com/aristath/steward/internal/version"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
	Jobs      *di.JobInstances
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	jobs           *di.JobInstances
	systemHandlers *SystemHandlers
	startedAt      time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		jobs:      cfg.Jobs,
		startedAt: time.Now(),
	}

	s.systemHandlers = NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.Container.Databases(),
		cfg.Jobs,
	)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check (before the API mount)
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Unified events stream (SSE) - must be before other routes for proper handling
		eventsStreamHandler := NewEventsStreamHandler(s.container.EventBus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		r.Get("/version", s.handleVersion)

		// System monitoring and job triggers
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			r.Get("/disk", s.systemHandlers.HandleDiskUsage)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
		})

		// Module routes
		holdingshandlers.NewHandler(s.container.HoldingsService, s.log).RegisterRoutes(r)
		ledgerhandlers.NewHandler(s.container.LedgerService, s.log).RegisterRoutes(r)
		snapshotshandlers.NewHandler(s.container.SnapshotsService, s.log).RegisterRoutes(r)
		budgethandlers.NewHandler(s.container.BudgetService, s.log).RegisterRoutes(r)
		networthhandlers.NewHandler(s.container.NetWorthService, s.log).RegisterRoutes(r)
		anomalyhandlers.NewHandler(s.container.AnomalyService, s.log).RegisterRoutes(r)
		historyhandlers.NewHandler(s.container.HistoryService, s.container.HistoryDB, s.log).RegisterRoutes(r)
		currencyhandlers.NewHandler(s.container.CurrencyService, s.log).RegisterRoutes(r)
		settingshandlers.NewHandler(s.container.SettingsService, s.log).RegisterRoutes(r)
	})
}

// handleHealth returns service health for load balancers and uptime checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	checks := make(map[string]string)
	for name, db := range s.container.Databases() {
		if err := db.HealthCheck(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
		} else {
			checks[name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"version":   version.Version,
		"uptime_s":  int(time.Since(s.startedAt).Seconds()),
		"databases": checks,
	})
}

// handleVersion returns the application version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": version.Version})
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
