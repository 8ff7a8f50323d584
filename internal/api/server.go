package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/squadsync/internal/api/handler"
	"github.com/albapepper/squadsync/internal/cache"
	"github.com/albapepper/squadsync/internal/config"
	"github.com/albapepper/squadsync/internal/status"
	"github.com/albapepper/squadsync/internal/store"
)

// Deps groups what the router hands to its handlers.
type Deps struct {
	Store    store.Store
	Cache    *cache.Cache
	Importer handler.Importer
	Tracker  *status.Tracker
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter creates and configures the Chi router with all middleware and routes.
// ctx bounds background imports started by the router's handlers.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag", "Retry-After", "X-Import-Run-Id"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	h := handler.New(ctx, deps.Store, deps.Cache, deps.Importer, deps.Tracker, logger)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		// Imports
		r.Get("/imports/status", h.ImportStatus)
		r.Post("/imports/{leagueCode}", h.ImportLeague)

		// Competitions
		r.Get("/competitions", h.ListCompetitions)
		r.Get("/competitions/{code}", h.GetCompetition)
		r.Get("/competitions/{code}/players", h.LeaguePlayers)
		r.Get("/competitions/{code}/coaches", h.LeagueCoaches)

		// Teams and people
		r.Get("/teams", h.ListTeams)
		r.Get("/teams/{name}", h.GetTeam)
		r.Get("/players", h.ListPlayers)
		r.Get("/coaches", h.ListCoaches)
	})

	return r
}
