package footballdata

import (
	"log/slog"

	"github.com/albapepper/squadsync/internal/config"
	"github.com/albapepper/squadsync/internal/metrics"
	"github.com/albapepper/squadsync/internal/provider"
)

// NewSource builds the full upstream stack from configuration: a paced HTTP
// client, wrapped by the rate-limit retrier, wrapped by the payload decoder.
// m may be nil.
func NewSource(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Handler {
	client := NewClient(cfg.FootballDataBaseURL, cfg.FootballDataAPIToken,
		cfg.FootballDataRequestsPerMinute, logger,
		WithTimeout(cfg.FootballDataTimeout),
		WithMetrics(m))

	retrier := provider.NewRetrier(client, provider.RetryConfig{
		MaxRetries: cfg.ImportMaxRetries,
		Base:       cfg.ImportRetryBase,
		Logger:     logger,
		Metrics:    m,
	})
	return NewHandler(retrier, logger)
}
