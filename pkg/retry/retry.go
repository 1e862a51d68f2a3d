// Package retry implements the bounded connection-establishment retry policy
// used at process startup. It is the only retry mechanism in the system;
// in-flight request failures are never retried.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

const (
	initialDelay = 100 * time.Millisecond
	maxDelay     = 5 * time.Second
	maxJitter    = 100 * time.Millisecond
)

// Connect invokes fn until it succeeds or maxAttempts is exhausted, sleeping
// between attempts with exponential backoff and a small random jitter. The
// delay starts at 100ms, doubles each attempt and is capped at 5s. Context
// cancellation aborts the wait immediately.
func Connect[T any](ctx context.Context, logger *slog.Logger, name string, maxAttempts int, fn func(context.Context) (T, error)) (T, error) {
	const op = "retry.Connect"

	var zero T
	delay := initialDelay

	for attempt := 1; ; attempt++ {
		conn, err := fn(ctx)
		if err == nil {
			logger.Info("successfully connected", slog.String("service", name))
			return conn, nil
		}

		if attempt >= maxAttempts {
			return zero, fmt.Errorf("%s: failed to connect to %s after %d attempts: %w",
				op, name, maxAttempts, err)
		}

		logger.Warn("failed to connect, retrying",
			slog.String("service", name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: connecting to %s canceled: %w", op, name, ctx.Err())
		case <-time.After(delay + time.Duration(rand.Int63n(int64(maxJitter)))):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
