package errors

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig bounds the exponential backoff used for transient storage
// errors (SQLITE_BUSY / SQLITE_LOCKED).
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the computed delay to randomize, [0,1]
}

// DefaultRetryConfig returns the bounded backoff used when no override is
// supplied.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   20 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Jitter:      0.25,
	}
}

// Retry runs fn up to cfg.MaxAttempts times, sleeping with exponential
// backoff and jitter between attempts, stopping early on a non-retryable
// error or on ctx cancellation.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	delay := cfg.BaseDelay
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}
		wait := delay
		if cfg.Jitter > 0 {
			jitter := 1 + (rand.Float64()*2-1)*cfg.Jitter
			wait = time.Duration(float64(wait) * jitter)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}
