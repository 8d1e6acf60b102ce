package readable

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"mwi/internal/logging"
)

// RetryConfig configures retry behavior for a single extraction attempt.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	AttemptTimeout time.Duration
}

// DefaultRetryConfig mirrors the crawl engine's documented defaults: up
// to 3 retries (4 attempts), backing off 1s/2s/4s, 30s per attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     8 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

// ErrMaxRetriesExceeded indicates all retry attempts failed.
var ErrMaxRetriesExceeded = errors.New("readable: maximum retries exceeded")

// RetryableFunc is an extraction attempt subject to retry.
type RetryableFunc func(ctx context.Context) (*Extraction, error)

// WithRetry executes fn with exponential backoff, checking context
// cancellation before each attempt and before each sleep.
func WithRetry(ctx context.Context, config RetryConfig, url string, fn RetryableFunc) (*Extraction, error) {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		attemptCtx, cancel := context.WithTimeout(ctx, config.AttemptTimeout)
		ex, err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 0 {
				logging.ReadableDebug("retry succeeded for %s on attempt %d", url, attempt+1)
			}
			return ex, nil
		}

		lastErr = err
		logging.ReadableWarn("attempt %d/%d for %s failed: %v", attempt+1, config.MaxRetries+1, url, err)

		if attempt < config.MaxRetries {
			backoff := calculateBackoff(config, attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("%w for %s: %v", ErrMaxRetriesExceeded, url, lastErr)
}

func calculateBackoff(config RetryConfig, attempt int) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	return time.Duration(backoff)
}
