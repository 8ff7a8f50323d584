package footballdata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/squadsync/internal/metrics"
	"github.com/albapepper/squadsync/internal/provider"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret-token", 0, quietLogger(),
		WithHTTPClient(srv.Client()),
		WithMetrics(metrics.New()))
}

func TestClient_SendsAuthHeader(t *testing.T) {
	var gotToken, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Auth-Token")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"name":"Premier League"}`))
	})

	body, err := c.Get(context.Background(), "/competitions/PL")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", gotToken)
	assert.Equal(t, "/competitions/PL", gotPath)
	assert.JSONEq(t, `{"name":"Premier League"}`, string(body))
}

func TestClient_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "9")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Get(context.Background(), "/teams/1")

	var rl *provider.RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.NotNil(t, rl.RetryAfter)
	assert.Equal(t, 9, *rl.RetryAfter)
}

func TestClient_RateLimitedWithoutHint(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Get(context.Background(), "/teams/1")

	var rl *provider.RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Nil(t, rl.RetryAfter)
}

func TestClient_UpstreamErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json message", http.StatusForbidden, `{"message":"The resource you are looking for is restricted.","errorCode":403}`, "The resource you are looking for is restricted."},
		{"plain body", http.StatusBadGateway, "bad gateway", "bad gateway"},
		{"empty body", http.StatusInternalServerError, "", "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Get(context.Background(), "/competitions/XX")

			var ue *provider.UpstreamError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.status, ue.StatusCode)
			assert.Equal(t, tt.wantMsg, ue.Message)
			assert.False(t, provider.IsRateLimited(err))
		})
	}
}

func TestClient_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Resource not found"}`))
	})

	_, err := c.Get(context.Background(), "/competitions/ZZ")
	assert.True(t, errors.Is(err, provider.ErrNotFound))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "token", 0, quietLogger(), WithTimeout(time.Second))
	_, err := c.Get(context.Background(), "/teams/1")

	var te *provider.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "/teams/1", te.Path)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate([]byte("abc"), 5))
	assert.Equal(t, "ab...", truncate([]byte("abcdef"), 2))
	assert.Equal(t, "M...", truncate([]byte("Müller"), 2))
	assert.Equal(t, "...", truncate([]byte("日本"), 2))
}

func TestUpstreamMessage_MultiByteBody(t *testing.T) {
	body := []byte("a" + strings.Repeat("é", 150))

	msg := upstreamMessage(http.StatusBadGateway, body)
	assert.True(t, utf8.ValidString(msg))
	assert.True(t, strings.HasSuffix(msg, "..."))
	assert.Len(t, msg, 199+len("..."))
}
