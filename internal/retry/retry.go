// Package retry provides the bounded exponential backoff used for the two
// transient failure kinds: artifact fetches and object-store publishes.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Do runs fn up to retryCount+1 times with exponential backoff between
// attempts (1s, 2s, 4s...). The backoff sleep aborts immediately when ctx
// is cancelled. The last error is returned when every attempt fails.
func Do(ctx context.Context, logger *slog.Logger, op string, retryCount int, fn func() error) error {
	maxAttempts := retryCount + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			logger.Info("retrying", "op", op, "attempt", attempt+1)
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
		logger.Warn("attempt failed", "op", op, "attempt", attempt+1, "error", lastErr)
	}
	return lastErr
}
