// Package connect provides startup retry for storage connections.
package connect

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// backoff is replaced in tests.
var backoff = Backoff

// Retry calls fn up to attempts times with exponential backoff between failures.
// A positive timeout bounds each attempt separately. It is meant for startup only; request paths never retry.
func Retry(ctx context.Context, target string, attempts int, timeout time.Duration, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = try(ctx, timeout, fn)
		if lastErr == nil {
			slog.Info("connected", "target", target, "attempts", attempt)
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := backoff(attempt)
		slog.Warn("connection failed, retrying",
			"target", target,
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", wait,
			"error", lastErr,
		)
		if !sleep(ctx, wait) {
			return fmt.Errorf("connection cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("connect to %s after %d attempts: %w", target, attempts, lastErr)
}

func try(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// Backoff returns exponential backoff duration capped at 16 seconds.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		return 16 * time.Second
	}
	return time.Duration(1<<(attempt-1)) * time.Second
}

// sleep waits for duration or context cancellation. Returns false if cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
