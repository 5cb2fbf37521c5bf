/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the business unit finance server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Configure logging
  3. Initialize SQLite store
  4. Create API handler and router
  5. Start the allocation audit scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (env PORT, default: 8080)
  -db             SQLite database path (env DB_PATH, default: finance.db)
                  Use ":memory:" for in-memory database
  -log-level      debug, info, warn, error (env LOG_LEVEL)
  -log-format     human or json (env LOG_FORMAT)
  -working-days   Working days per month for day-count allocation (env WORKING_DAYS)
  -audit          Run the allocation audit (env AUDIT_ENABLED)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/finance.db"

  # Run with in-memory database and JSON logs
  ./server -db=":memory:" -log-format=json

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warp/unit-finance/api"
	"github.com/warp/unit-finance/config"
	"github.com/warp/unit-finance/logging"
	"github.com/warp/unit-finance/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db", cfg.DBPath).Msg("Failed to initialize database")
	}
	defer store.Close()

	handler := api.NewHandler(store, cfg, logger)
	router := api.NewRouter(handler)

	// Background audit
	scheduler := api.NewScheduler(logger)
	if cfg.AuditEnabled {
		audit := api.NewAllocationAudit(handler)
		if err := scheduler.AddJob(cfg.AuditSchedule, audit); err != nil {
			logger.Fatal().Err(err).Str("schedule", cfg.AuditSchedule).Msg("Invalid audit schedule")
		}
		if err := scheduler.RunNow(audit); err != nil {
			logger.Warn().Err(err).Msg("Initial allocation audit failed")
		}
		scheduler.Start()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.Addr()).
			Str("db", cfg.DBPath).
			Int("working_days", cfg.WorkingDays).
			Bool("holiday_calendar", cfg.UseHolidayCalendar).
			Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	if cfg.AuditEnabled {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		return
	}
	logger.Info().Msg("Server stopped")
}
