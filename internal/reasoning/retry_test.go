package reasoning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSleep replaces retrySleep for the test and records requested delays.
func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := retrySleep
	retrySleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { retrySleep = orig })
	return &delays
}

func TestCallWithRetrySucceedsFirstTry(t *testing.T) {
	delays := stubSleep(t)

	calls := 0
	out, err := CallWithRetry(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	}, 3, 2*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestCallWithRetryBackoffDoubles(t *testing.T) {
	delays := stubSleep(t)

	calls := 0
	_, err := CallWithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, &APIError{StatusCode: http.StatusTooManyRequests, Body: "slow down"}
	}, 3, 2*time.Second)

	require.Error(t, err)
	assert.Equal(t, 4, calls, "initial attempt plus maxRetries")
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, *delays)
}

func TestCallWithRetryRecoversMidway(t *testing.T) {
	delays := stubSleep(t)

	calls := 0
	out, err := CallWithRetry(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &APIError{StatusCode: http.StatusServiceUnavailable, Body: "overloaded"}
		}
		return "recovered", nil
	}, 3, 2*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *delays)
}

func TestCallWithRetryNonTransientFailsFast(t *testing.T) {
	delays := stubSleep(t)

	permanent := &APIError{StatusCode: http.StatusBadRequest, Body: "bad schema"}
	calls := 0
	_, err := CallWithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	}, 3, 2*time.Second)

	require.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors must not retry")
	assert.Empty(t, *delays)

	// The operation's error propagates unchanged
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestCallWithRetryExhaustionReturnsLastError(t *testing.T) {
	stubSleep(t)

	last := &APIError{StatusCode: http.StatusTooManyRequests, Body: "still limited"}
	_, err := CallWithRetry(context.Background(), func(ctx context.Context) (int, error) {
		return 0, last
	}, 2, time.Second)

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "still limited", apiErr.Body)
}

func TestCallWithRetryContextCancelDuringBackoff(t *testing.T) {
	orig := retrySleep
	retrySleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}
	t.Cleanup(func() { retrySleep = orig })

	_, err := CallWithRetry(context.Background(), func(ctx context.Context) (int, error) {
		return 0, &APIError{StatusCode: http.StatusTooManyRequests}
	}, 3, time.Second)

	require.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429 status", &APIError{StatusCode: 429}, true},
		{"503 status", &APIError{StatusCode: 503}, true},
		{"400 status", &APIError{StatusCode: 400}, false},
		{"500 status", &APIError{StatusCode: 500}, false},
		{"wrapped 429", fmt.Errorf("call: %w", &APIError{StatusCode: 429}), true},
		{"rate limit text", errors.New("rate limit exceeded (429)"), true},
		{"overloaded text", errors.New("model is overloaded"), true},
		{"unavailable text", errors.New("service unavailable"), true},
		{"plain failure", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
