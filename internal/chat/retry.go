package chat

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// #region constants

const maxRetries = 2 // max 2 retries = 3 total attempts

// #endregion

// #region should-retry

// shouldRetry reports whether a failed attempt is transient and the budget
// allows another. attempts counts calls made so far.
func shouldRetry(err error, attempts int) bool {
	if err == nil || attempts > maxRetries {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

// #endregion

// #region with-retry

// withRetry runs call until it succeeds, fails permanently, or the budget is
// spent. Backoff doubles per attempt and respects ctx.
func withRetry[T any](ctx context.Context, backoff time.Duration, call func() (T, error)) (T, int, error) {
	attempts := 0
	for {
		attempts++
		v, err := call()
		if !shouldRetry(err, attempts) {
			return v, attempts, err
		}

		wait := backoff << (attempts - 1)
		select {
		case <-ctx.Done():
			var zero T
			return zero, attempts, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// #endregion
