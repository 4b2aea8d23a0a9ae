package reasoning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bedrock/internal/logging"
)

// Retry defaults. Successive waits double: 2s, 4s, 8s.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second
)

// APIError is a failed HTTP exchange with the reasoning capability. The status
// code drives the transient/permanent classification.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether err looks like a rate limit (429) or overload
// (503) failure worth retrying. Errors from layers that don't carry a status
// code are matched on message text.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode == http.StatusServiceUnavailable
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "unavailable")
}

// retrySleep waits for d or until ctx is done. Swapped out by tests.
var retrySleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CallWithRetry invokes op, retrying transient failures up to maxRetries times
// with exponential backoff starting at baseDelay (op runs at most
// maxRetries+1 times). Non-transient errors and exhausted retries propagate
// the operation's error unchanged. op must be safe to repeat; callers apply
// tree mutations only after CallWithRetry returns.
func CallWithRetry[T any](ctx context.Context, op func(context.Context) (T, error), maxRetries int, baseDelay time.Duration) (T, error) {
	var zero T
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if !IsTransient(err) || attempt >= maxRetries {
			return zero, err
		}
		logging.APIDebug("transient failure (attempt %d/%d), retrying in %v: %v",
			attempt+1, maxRetries+1, delay, err)
		if serr := retrySleep(ctx, delay); serr != nil {
			return zero, serr
		}
		delay *= 2
	}
}
