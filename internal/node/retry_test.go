package node

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(ErrRetryable))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&retryAfterError{err: ErrRateLimited, after: time.Second}))
	assert.False(t, IsRetryable(walleterr.ErrNetworkError))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, 3*time.Second, ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-1"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestCalculateDelay(t *testing.T) {
	t.Parallel()

	for attempt := 0; attempt < 5; attempt++ {
		d := calculateDelay(attempt, 100*time.Millisecond, 400*time.Millisecond)
		ceiling := min(100*time.Millisecond*(1<<attempt), 400*time.Millisecond)
		assert.GreaterOrEqual(t, d, ceiling/2)
		assert.Less(t, d, ceiling)
	}
	assert.Equal(t, time.Duration(0), calculateDelay(0, 0, 0))
}

func TestRetryWithConfig(t *testing.T) {
	t.Parallel()
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	t.Run("succeeds after retry", func(t *testing.T) {
		t.Parallel()
		calls := 0
		var retried []int
		v, err := RetryWithConfig(context.Background(), cfg, func(attempt int, _ error) {
			retried = append(retried, attempt)
		}, func() (int, error) {
			calls++
			if calls < 2 {
				return 0, ErrRetryable
			}
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, v)
		assert.Equal(t, []int{1}, retried)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := RetryWithConfig(context.Background(), cfg, nil, func() (int, error) {
			calls++
			return 0, walleterr.ErrInvalidInput
		})
		require.ErrorIs(t, err, walleterr.ErrInvalidInput)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := RetryWithConfig(context.Background(), cfg, nil, func() (int, error) {
			calls++
			return 0, ErrTimeout
		})
		require.ErrorIs(t, err, ErrTimeout)
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Equal(t, 3, calls)
	})

	t.Run("honors context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
		_, err := RetryWithConfig(ctx, slow, func(int, error) { cancel() }, func() (int, error) {
			return 0, ErrRetryable
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	r := NewRateLimiter(0.001, 2)
	require.NoError(t, r.Wait(context.Background(), "utxos"))
	require.NoError(t, r.Wait(context.Background(), "utxos"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Error(t, r.Wait(ctx, "utxos"))
	require.NoError(t, r.Wait(ctx, "submit"))

	unlimited := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, unlimited.Wait(context.Background(), "active"))
	}
}
