// Package retry provides exponential backoff for calls to the upstream model API.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	perrors "github.com/p-blackswan/todo-suggest/internal/errors"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool

	// OnRetry, if set, is called before sleeping ahead of the next attempt.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig returns the defaults used for model calls.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    4 * time.Second,
		Jitter:      true,
	}
}

// Backoff returns the delay before retrying after the given zero-based attempt.
func (c Config) Backoff(attempt int) time.Duration {
	delay := time.Duration(float64(c.BaseDelay) * math.Pow(2, float64(attempt)))
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if c.Jitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
	}
	return delay
}

// DoValue executes fn with exponential backoff and returns its value. Only
// retryable errors are retried.
func DoValue[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		val     T
		lastErr error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		val, lastErr = fn(ctx)
		if lastErr == nil {
			return val, nil
		}
		if !perrors.IsRetryable(lastErr) || attempt == attempts-1 {
			break
		}

		delay := cfg.Backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, delay, lastErr)
		}

		select {
		case <-ctx.Done():
			return val, ctx.Err()
		case <-time.After(delay):
		}
	}
	return val, lastErr
}
