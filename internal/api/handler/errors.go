package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/albapepper/squadsync/internal/api/respond"
	"github.com/albapepper/squadsync/internal/provider"
	"github.com/albapepper/squadsync/internal/store"
)

// writeError maps pipeline and store errors onto HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		rl        *provider.RateLimitedError
		upstream  *provider.UpstreamError
		decode    *provider.DecodeError
		transport *provider.TransportError
	)

	switch {
	case errors.Is(err, provider.ErrNotFound), errors.Is(err, store.ErrNotFound):
		respond.Error(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found", err.Error())
	case errors.As(err, &rl):
		if rl.RetryAfter != nil {
			w.Header().Set("Retry-After", strconv.Itoa(*rl.RetryAfter))
		}
		respond.Error(w, r, http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED",
			"Upstream rate limit exhausted", err.Error())
	case errors.As(err, &decode):
		respond.Error(w, r, http.StatusBadGateway, "UPSTREAM_DECODE",
			"Upstream returned an unexpected payload", err.Error())
	case errors.As(err, &upstream):
		respond.Error(w, r, http.StatusBadGateway, "UPSTREAM_ERROR",
			"Upstream request failed", upstream.Message)
	case errors.As(err, &transport):
		respond.Error(w, r, http.StatusGatewayTimeout, "UPSTREAM_UNREACHABLE",
			"Upstream could not be reached", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(w, r, http.StatusServiceUnavailable, "CANCELLED", "Request was cancelled", "")
	default:
		logger.Error("Unhandled error", "error", err)
		respond.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", "")
	}
}
