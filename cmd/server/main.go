// Package main is the entry point for the Satellite formation tracker.
// It tracks which budget formation is active each day, keeps usage
// statistics per formation and serves allocation plans over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/satellite/internal/config"
	"github.com/aristath/satellite/internal/di"
	"github.com/aristath/satellite/internal/server"
	"github.com/aristath/satellite/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from the environment (.env supported)
// 2. Initializes logging
// 3. Wires dependencies (storage, services, jobs)
// 4. Starts the scheduler and the HTTP server
// 5. Waits for a shutdown signal and stops everything gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("backend", cfg.StorageBackend).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting Satellite")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, jobs, err := di.Wire(startupCtx, cfg, log)
	startupCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close container")
		}
	}()

	// catch up when the process was down at the scheduled time
	if err := container.Scheduler.RunNow(jobs.DailyCheck); err != nil {
		log.Warn().Err(err).Msg("Startup daily check failed")
	}

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
