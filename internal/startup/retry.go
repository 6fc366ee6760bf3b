// Package startup holds helpers for bringing services up at boot.
package startup

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/index"
)

// RetryConfig configures the exponential backoff retry behavior.
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64
	// Retryable decides which failures are retried. Nil retries the
	// failures index.IsRetryable accepts.
	Retryable func(error) bool
	Clock     clockwork.Clock
}

// DefaultRetryConfig returns the backoff used for index readiness at boot.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay: 2 * time.Second,
		MaxDelay:     time.Minute,
		MaxAttempts:  5,
		Multiplier:   2.0,
	}
}

// WithRetry executes fn with exponential backoff. Failures that are not
// retryable end the loop immediately.
func WithRetry(ctx context.Context, name string, cfg RetryConfig, fn func(ctx context.Context) error, logger zerolog.Logger) error {
	if cfg.Retryable == nil {
		cfg.Retryable = index.IsRetryable
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().Str("operation", name).Int("attempt", attempt).Msg("operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !cfg.Retryable(err) {
			logger.Error().Err(err).Str("operation", name).Msg("non-retryable error, not retrying")
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn().
			Err(err).
			Str("operation", name).
			Int("attempt", attempt).
			Int("maxAttempts", cfg.MaxAttempts).
			Dur("nextRetryIn", delay).
			Msg("operation failed, will retry")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cfg.Clock.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	logger.Error().Err(lastErr).Str("operation", name).Int("attempts", cfg.MaxAttempts).
		Msg("operation failed after all retries")
	return lastErr
}
