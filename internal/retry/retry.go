// Package retry reruns flaky operations with a bounded attempt count,
// used around feed record writes.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/tech2news/technews/internal/logger"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // Linear backoff: attempt N waits N * Delay
}

func WithRetry(ctx context.Context, config Config, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err

			if attempt == config.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, err)
			}

			delay := config.Delay
			if config.Backoff {
				delay = time.Duration(attempt) * config.Delay
			}
			logger.Warn("attempt failed, retrying",
				"attempt", attempt, "max_attempts", config.MaxAttempts,
				"delay", delay, "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
		return nil
	}

	return lastErr
}
