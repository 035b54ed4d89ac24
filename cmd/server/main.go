// Package main is the entry point for the Steward personal finance dashboard.
// The application tracks net worth across bank accounts, brokerage holdings,
// superannuation and debts, and runs a pay-cycle budget with anomaly
// detection - a single-user system with no human in the loop beyond data
// entry.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/steward/internal/config"
	"github.com/aristath/steward/internal/di"
	"github.com/aristath/steward/internal/server"
	"github.com/aristath/steward/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Loads configuration from environment variables (.env supported)
// 2. Initializes logging
// 3. Wires all dependencies via the DI container (databases, repositories,
//    services, scheduled jobs); settings-database overrides are merged in
// 4. Starts the HTTP server
// 5. Starts the cron scheduler
// 6. Waits for shutdown signal and performs graceful shutdown
//
// The application uses a 5-database architecture:
// - ledger.db: Immutable financial audit trail (holdings, transactions, snapshots)
// - budget.db: Budget periods and day-to-day spending
// - config.db: Application configuration (settings)
// - cache.db: External API response cache (Yahoo, ExchangeRate)
// - history.db: Append-only time series (prices, net worth snapshots)
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Steward")

	// Wire all dependencies: databases, repositories, services and jobs.
	// Settings stored in config.db (R2 credentials, display currency) are
	// merged into cfg before services are constructed.
	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	// Start server in goroutine so the scheduler can start concurrently
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Start the cron scheduler once the API is up; jobs publish lifecycle
	// events that the dashboard consumes over SSE.
	jobs.Scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the scheduler first; Stop blocks until running jobs finish, so a
	// backup in flight completes before the databases close.
	jobs.Scheduler.Stop()

	// Graceful shutdown, 10 seconds for in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
