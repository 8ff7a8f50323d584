// Package maintenance runs periodic background tasks as Go tickers.
// Today that is the scheduled re-import of configured leagues.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/squadsync/internal/seed"
)

// Config controls maintenance tasks. A zero interval or an empty league list
// disables the refresh.
type Config struct {
	RefreshInterval time.Duration
	RefreshLeagues  []string
	// AfterImport runs after each successful scheduled import.
	AfterImport func(*seed.Report)
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, im Importer, cfg Config, logger *slog.Logger) {
	if cfg.RefreshInterval <= 0 || len(cfg.RefreshLeagues) == 0 {
		logger.Info("Scheduled refresh disabled")
		return
	}

	logger.Info("Maintenance tickers started",
		"refresh", cfg.RefreshInterval,
		"leagues", cfg.RefreshLeagues)

	t := time.NewTicker(cfg.RefreshInterval)
	defer t.Stop()

	runLoop(ctx, t.C, func() {
		_ = RefreshLeagues(ctx, im, cfg.RefreshLeagues, cfg.AfterImport, logger)
	})
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
