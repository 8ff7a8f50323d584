// Command api is the squadsync API server.
//
// Usage:
//
//	squadsync-api
//	API_PORT=8080 squadsync-api

// @title squadsync API
// @version 1.0
// @description Imports football competitions, teams and squads from football-data.org and serves the stored graph.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @license.name MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/albapepper/squadsync/internal/api"
	"github.com/albapepper/squadsync/internal/cache"
	"github.com/albapepper/squadsync/internal/config"
	"github.com/albapepper/squadsync/internal/db"
	"github.com/albapepper/squadsync/internal/maintenance"
	"github.com/albapepper/squadsync/internal/metrics"
	"github.com/albapepper/squadsync/internal/provider/footballdata"
	"github.com/albapepper/squadsync/internal/seed"
	"github.com/albapepper/squadsync/internal/status"

	_ "github.com/albapepper/squadsync/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the store (migrations run first)
	logger.Info("Connecting to database...", "backend", cfg.Backend())
	st, err := db.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("Database connected",
		"backend", cfg.Backend(),
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	if cfg.FootballDataAPIToken == "" {
		if cfg.IsProduction() {
			logger.Error("FOOTBALL_DATA_API_TOKEN is required in production")
			os.Exit(1)
		}
		logger.Warn("FOOTBALL_DATA_API_TOKEN is not set; upstream requests will be rejected")
	}

	m := metrics.New()

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Import pipeline
	tracker := status.NewTracker()
	importer := seed.NewImporter(st, footballdata.NewSource(cfg, logger, m), tracker, logger, seed.Options{
		TeamLimit:    cfg.ImportTeamLimit,
		RequestDelay: seed.DelayOption(cfg.ImportRequestDelay),
		Metrics:      m,
	})

	// Create router
	router := api.NewRouter(ctx, cfg, api.Deps{
		Store:    st,
		Cache:    appCache,
		Importer: importer,
		Tracker:  tracker,
		Metrics:  m.Handler(),
		Logger:   logger,
	})

	// Create HTTP server. Synchronous imports pace upstream requests, so the
	// write timeout must leave room for a full league.
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Scheduled league refresh
	g.Go(func() error {
		maintenance.Start(gctx, importer, maintenance.Config{
			RefreshInterval: cfg.RefreshInterval,
			RefreshLeagues:  cfg.RefreshLeagues,
			AfterImport:     func(*seed.Report) { appCache.Flush() },
		}, logger)
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting squadsync API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	// Wait for interrupt or a failed listener, then shut down gracefully.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
