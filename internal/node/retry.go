package node

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// Sentinel errors for retry logic.
var (
	ErrRetryable = &walleterr.WalletError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: walleterr.ExitGeneral,
	}

	ErrTimeout = &walleterr.WalletError{
		Code:     "TIMEOUT",
		Message:  "operation timed out",
		ExitCode: walleterr.ExitGeneral,
	}

	ErrRateLimited = &walleterr.WalletError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: walleterr.ExitGeneral,
	}
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts including the first
	BaseDelay   time.Duration // Delay before the first retry
	MaxDelay    time.Duration // Upper bound for any single delay
}

// DefaultRetryConfig allows 4 attempts with delays of roughly 1s, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
	}
}

// RetryWithConfig runs operation until it succeeds, fails with a
// non-retryable error, or runs out of attempts. onRetry, if set, is invoked
// before every retry.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, onRetry func(attempt int, err error), operation func() (T, error)) (T, error) {
	var result T
	var err error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}

		if onRetry != nil {
			onRetry(attempt+1, err)
		}

		delay := calculateDelay(attempt, cfg.BaseDelay, cfg.MaxDelay)
		var hinted *retryAfterError
		if errors.As(err, &hinted) && hinted.after > delay {
			delay = min(hinted.after, cfg.MaxDelay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// calculateDelay returns an exponential backoff delay with jitter in
// [delay/2, delay).
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // G404: jitter does not require cryptographic randomness
}

// IsRetryable reports whether err should trigger another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ParseRetryAfter parses a Retry-After header given in seconds.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// retryAfterError carries the server's requested backoff.
type retryAfterError struct {
	err   error
	after time.Duration
}

func (e *retryAfterError) Error() string { return e.err.Error() }
func (e *retryAfterError) Unwrap() error { return e.err }
