package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

var (
	errInner = errors.New("inner")
	errPlain = errors.New("plain error")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, walleterr.ExitSuccess},
		{"general error", walleterr.ErrGeneral, walleterr.ExitGeneral},
		{"input error", walleterr.ErrInvalidInput, walleterr.ExitInput},
		{"decryption", walleterr.ErrDecryptionFailed, walleterr.ExitAuth},
		{"not found", walleterr.ErrWalletNotFound, walleterr.ExitNotFound},
		{"insufficient funds", walleterr.ErrInsufficientFunds, walleterr.ExitPermission},
		{"plain error", errPlain, walleterr.ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, walleterr.ExitCode(tt.err))
		})
	}
}

func TestWrapPreservesIdentity(t *testing.T) {
	t.Parallel()

	for _, sentinel := range []error{
		walleterr.ErrInvalidAddress,
		walleterr.ErrAmountTooSmall,
		walleterr.ErrAmountTooLarge,
		walleterr.ErrInternal,
		walleterr.ErrMassExceeded,
	} {
		wrapped := walleterr.Wrap(sentinel, "context")
		require.ErrorIs(t, wrapped, sentinel)
		assert.Equal(t, walleterr.Code(sentinel), walleterr.Code(wrapped))
	}

	assert.NoError(t, walleterr.Wrap(nil, "nothing"))
}

func TestWrapPlainError(t *testing.T) {
	t.Parallel()

	err := walleterr.Wrap(errInner, "loading %s", "wallet")

	var we *walleterr.WalletError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "GENERAL_ERROR", we.Code)
	assert.Equal(t, "loading wallet", we.Message)
	require.ErrorIs(t, err, errInner)
}

func TestInvalidAddress(t *testing.T) {
	t.Parallel()

	err := walleterr.InvalidAddress("kaspa:bogus", errInner)

	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)
	require.ErrorIs(t, err, errInner)
	assert.Contains(t, err.Error(), "kaspa:bogus")

	var we *walleterr.WalletError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "kaspa:bogus", we.Details[walleterr.DetailAddress])
}

func TestAmountLimit(t *testing.T) {
	t.Parallel()

	t.Run("too small", func(t *testing.T) {
		t.Parallel()
		err := walleterr.AmountTooSmall(100000000)
		require.ErrorIs(t, err, walleterr.ErrAmountTooSmall)
		limit, ok := walleterr.AmountLimit(err)
		require.True(t, ok)
		assert.Equal(t, uint64(100000000), limit)
	})

	t.Run("too large survives wrapping", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("validate: %w", walleterr.AmountTooLarge(416216738))
		require.ErrorIs(t, err, walleterr.ErrAmountTooLarge)
		limit, ok := walleterr.AmountLimit(err)
		require.True(t, ok)
		assert.Equal(t, uint64(416216738), limit)
	})

	t.Run("no limit", func(t *testing.T) {
		t.Parallel()
		_, ok := walleterr.AmountLimit(walleterr.ErrInternal)
		assert.False(t, ok)
		_, ok = walleterr.AmountLimit(errPlain)
		assert.False(t, ok)
	})
}

func TestWithDetailsAndSuggestion(t *testing.T) {
	t.Parallel()
	details := map[string]string{"key": "value"}

	err := walleterr.WithDetails(walleterr.ErrGeneral, details)
	err = walleterr.WithSuggestion(err, "Try this instead")

	var we *walleterr.WalletError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, details, we.Details)
	assert.Equal(t, "Try this instead", we.Suggestion)

	assert.NoError(t, walleterr.WithDetails(nil, details))
	assert.NoError(t, walleterr.WithSuggestion(nil, "x"))
}

func TestWalletErrorMessageDeterministic(t *testing.T) {
	t.Parallel()

	err := &walleterr.WalletError{
		Message: "failed",
		Details: map[string]string{"z": "1", "a": "2"},
		Cause:   errInner,
	}
	assert.Equal(t, "failed (a: 2) (z: 1): inner", err.Error())
}
