package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/squadsync/internal/seed"
)

// Importer runs one league import.
type Importer interface {
	Import(ctx context.Context, code string) (*seed.Report, error)
}

// RefreshLeagues imports each league in turn. A failing league is logged and
// skipped; the joined error of all failures is returned. afterEach, when
// non-nil, runs after every successful import.
func RefreshLeagues(ctx context.Context, im Importer, leagues []string, afterEach func(*seed.Report), logger *slog.Logger) error {
	var errs []error
	for _, code := range leagues {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		report, err := im.Import(ctx, code)
		dur := time.Since(start).Round(time.Millisecond)
		if err != nil {
			logger.Warn("Scheduled refresh failed", "league", code, "duration", dur, "error", err)
			errs = append(errs, fmt.Errorf("refresh %s: %w", code, err))
			continue
		}

		logger.Info("Scheduled refresh complete",
			"league", code, "duration", dur, "summary", report.Result.Summary())
		if afterEach != nil {
			afterEach(report)
		}
	}
	return errors.Join(errs...)
}
