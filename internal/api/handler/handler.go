// Package handler provides HTTP handlers for all API endpoints.
// Read handlers go straight to the store and cache the encoded JSON; import
// handlers drive the league importer.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/albapepper/squadsync/internal/api/respond"
	"github.com/albapepper/squadsync/internal/cache"
	"github.com/albapepper/squadsync/internal/seed"
	"github.com/albapepper/squadsync/internal/status"
	"github.com/albapepper/squadsync/internal/store"
)

// Importer runs a league import.
type Importer interface {
	Import(ctx context.Context, code string) (*seed.Report, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	// ctx bounds background (async) imports; it is cancelled on shutdown.
	ctx      context.Context
	store    store.Store
	cache    *cache.Cache
	importer Importer
	tracker  *status.Tracker
	logger   *slog.Logger

	// imports coalesces concurrent imports of the same league code.
	imports singleflight.Group
}

// New creates a Handler with shared dependencies.
func New(ctx context.Context, st store.Store, c *cache.Cache, im Importer, tracker *status.Tracker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ctx:      ctx,
		store:    st,
		cache:    c,
		importer: im,
		tracker:  tracker,
		logger:   logger,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.Object(w, http.StatusOK, map[string]any{
		"name":    "squadsync",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"endpoints": []string{
			"POST /api/v1/imports/{leagueCode}",
			"GET /api/v1/imports/status",
			"GET /api/v1/competitions",
			"GET /api/v1/teams",
			"GET /api/v1/players",
			"GET /api/v1/coaches",
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.Object(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies store connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.Object(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.Object(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.Object(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
