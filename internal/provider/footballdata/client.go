// Package footballdata provides the HTTP client and payload decoding for the
// football-data.org v4 API.
//
// football-data.org authenticates with the X-Auth-Token header and enforces a
// per-minute request budget (10/min on the free tier). The client spends that
// budget through a token bucket limiter; reacting to 429s is left to
// provider.Retrier.
package footballdata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/albapepper/squadsync/internal/metrics"
	"github.com/albapepper/squadsync/internal/provider"
)

// DefaultBaseURL is the public v4 endpoint.
const DefaultBaseURL = "https://api.football-data.org/v4"

const authHeader = "X-Auth-Token"

// Client issues authenticated GET requests. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMetrics records request outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a football-data.org client. requestsPerMinute <= 0
// disables the client-side limiter.
func NewClient(baseURL, apiToken string, requestsPerMinute int, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60.0)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a rate-limited GET and returns the raw body of a 2xx response.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(authHeader, c.apiToken)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Requesting upstream", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(metrics.OutcomeTransport)
		return nil, &provider.TransportError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRequest(metrics.OutcomeTransport)
		return nil, &provider.TransportError{Path: path, Err: fmt.Errorf("read response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.ObserveRequest(metrics.OutcomeRateLimited)
		rl := &provider.RateLimitedError{Path: path}
		if secs, ok := provider.ExtractRetryAfter(resp.Header, c.now()); ok {
			rl.RetryAfter = &secs
		}
		return nil, rl
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.metrics.ObserveRequest(metrics.OutcomeUpstream)
		c.logger.Warn("Upstream error", "path", path, "status", resp.StatusCode)
		return nil, &provider.UpstreamError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.StatusCode, body),
		}
	}

	c.metrics.ObserveRequest(metrics.OutcomeOK)
	return body, nil
}

// upstreamMessage prefers the API's JSON "message" field over the raw body.
func upstreamMessage(status int, body []byte) string {
	if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String && msg.Str != "" {
		return msg.Str
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return http.StatusText(status)
	}
	return truncate(body, 200)
}

// truncate returns a truncated string representation for error messages.
// The cut backs off to a rune boundary.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	n := maxLen
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}
