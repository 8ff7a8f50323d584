package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/albapepper/squadsync/internal/metrics"
)

const (
	// DefaultMaxRetries is the retry budget for rate-limited requests.
	DefaultMaxRetries = 3
	// DefaultRetryBase is the first exponential backoff delay.
	DefaultRetryBase = time.Second

	maxRetryDelay = 5 * time.Minute
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryConfig configures a Retrier. Zero Base and nil Sleep/Logger fall back
// to defaults; MaxRetries is used as given.
type RetryConfig struct {
	MaxRetries int
	Base       time.Duration
	Sleep      SleepFunc
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Retrier wraps a Getter and retries rate-limited requests only. Every other
// error is returned on first sight.
type Retrier struct {
	next       Getter
	maxRetries int
	base       time.Duration
	sleep      SleepFunc
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewRetrier wraps next with bounded exponential backoff.
func NewRetrier(next Getter, cfg RetryConfig) *Retrier {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Base <= 0 {
		cfg.Base = DefaultRetryBase
	}
	if cfg.Sleep == nil {
		cfg.Sleep = Sleep
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Retrier{
		next:       next,
		maxRetries: cfg.MaxRetries,
		base:       cfg.Base,
		sleep:      cfg.Sleep,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Get makes at most maxRetries+1 attempts. The wait before retry n is the
// server's Retry-After when given, else base * 2^n.
func (r *Retrier) Get(ctx context.Context, path string) ([]byte, error) {
	policy := &backoff.ExponentialBackOff{
		InitialInterval: r.base,
		Multiplier:      2,
		MaxInterval:     maxRetryDelay,
	}
	policy.Reset()

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		body, err := r.next.Get(ctx, path)
		if err == nil {
			return body, nil
		}

		var rl *RateLimitedError
		if !errors.As(err, &rl) {
			return nil, err
		}
		lastErr = err

		// Advance the policy on every failure so the exponent tracks the attempt
		// even when the server supplied its own wait.
		delay := policy.NextBackOff()
		if attempt == r.maxRetries {
			break
		}
		if rl.RetryAfter != nil {
			delay = time.Duration(*rl.RetryAfter) * time.Second
		}

		r.logger.Warn("Rate limited, backing off",
			"path", path, "attempt", attempt+1, "max_retries", r.maxRetries, "delay", delay)
		r.metrics.ObserveRetry()

		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	r.logger.Error("Rate limit retries exhausted", "path", path, "attempts", r.maxRetries+1)
	return nil, lastErr
}
