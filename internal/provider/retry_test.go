package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type getterMock struct{ mock.Mock }

var _ Getter = (*getterMock)(nil)

func (m *getterMock) Get(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRetrier(next Getter, sleeps *recordedSleeps) *Retrier {
	return NewRetrier(next, RetryConfig{
		MaxRetries: DefaultMaxRetries,
		Base:       time.Second,
		Sleep:      sleeps.sleep,
		Logger:     quietLogger(),
	})
}

func TestRetrier_SuccessFirstAttempt(t *testing.T) {
	g := &getterMock{}
	g.On("Get", mock.Anything, "/competitions/PL").Return([]byte(`{}`), nil).Once()

	sleeps := &recordedSleeps{}
	body, err := newTestRetrier(g, sleeps).Get(context.Background(), "/competitions/PL")

	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), body)
	assert.Empty(t, sleeps.delays)
	g.AssertExpectations(t)
}

func TestRetrier_ExhaustsBudget(t *testing.T) {
	g := &getterMock{}
	g.On("Get", mock.Anything, "/teams/1").Return(nil, &RateLimitedError{Path: "/teams/1"})

	sleeps := &recordedSleeps{}
	_, err := newTestRetrier(g, sleeps).Get(context.Background(), "/teams/1")

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	g.AssertNumberOfCalls(t, "Get", DefaultMaxRetries+1)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeps.delays)
}

func TestRetrier_RetryAfterOverridesBackoff(t *testing.T) {
	wait := 7
	g := &getterMock{}
	g.On("Get", mock.Anything, "/teams/2").Return(nil, &RateLimitedError{Path: "/teams/2", RetryAfter: &wait}).Once()
	g.On("Get", mock.Anything, "/teams/2").Return(nil, &RateLimitedError{Path: "/teams/2"}).Once()
	g.On("Get", mock.Anything, "/teams/2").Return([]byte(`{"id":2}`), nil).Once()

	sleeps := &recordedSleeps{}
	body, err := newTestRetrier(g, sleeps).Get(context.Background(), "/teams/2")

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2}`, string(body))
	// The exponent keeps counting across the server-supplied wait.
	assert.Equal(t, []time.Duration{7 * time.Second, 2 * time.Second}, sleeps.delays)
	g.AssertExpectations(t)
}

func TestRetrier_NonRateLimitErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"upstream", &UpstreamError{Path: "/x", StatusCode: 500, Message: "boom"}},
		{"transport", &TransportError{Path: "/x", Err: errors.New("connection refused")}},
		{"decode", &DecodeError{Path: "/x", Err: errors.New("bad json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &getterMock{}
			g.On("Get", mock.Anything, "/x").Return(nil, tt.err).Once()

			sleeps := &recordedSleeps{}
			_, err := newTestRetrier(g, sleeps).Get(context.Background(), "/x")

			require.ErrorIs(t, err, tt.err)
			g.AssertNumberOfCalls(t, "Get", 1)
			assert.Empty(t, sleeps.delays)
		})
	}
}

func TestRetrier_ZeroRetries(t *testing.T) {
	g := &getterMock{}
	g.On("Get", mock.Anything, "/x").Return(nil, &RateLimitedError{Path: "/x"})

	sleeps := &recordedSleeps{}
	r := NewRetrier(g, RetryConfig{MaxRetries: 0, Sleep: sleeps.sleep, Logger: quietLogger()})
	_, err := r.Get(context.Background(), "/x")

	assert.True(t, IsRateLimited(err))
	g.AssertNumberOfCalls(t, "Get", 1)
	assert.Empty(t, sleeps.delays)
}

func TestRetrier_CancelledDuringBackoff(t *testing.T) {
	g := &getterMock{}
	g.On("Get", mock.Anything, "/x").Return(nil, &RateLimitedError{Path: "/x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrier(g, RetryConfig{MaxRetries: 3, Base: time.Hour, Logger: quietLogger()})
	_, err := r.Get(ctx, "/x")

	require.ErrorIs(t, err, context.Canceled)
	g.AssertNumberOfCalls(t, "Get", 1)
}

func TestSleep_ZeroDuration(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))
}
