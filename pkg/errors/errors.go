// Package errors provides structured error handling for kaswallet.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or insufficient funds
)

// Detail keys with a fixed meaning.
const (
	DetailAddress = "address"
	DetailLimit   = "limit"
)

// WalletError is the structured error type for kaswallet.
type WalletError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *WalletError) Error() string {
	msg := e.Message

	// Sorted for deterministic output
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *WalletError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for WalletError.
func (e *WalletError) Is(target error) bool {
	var t *WalletError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &WalletError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &WalletError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrInsufficientFunds = &WalletError{
		Code:     "INSUFFICIENT_FUNDS",
		Message:  "insufficient funds for transaction",
		ExitCode: ExitPermission,
	}

	// Wallet errors.
	ErrWalletNotFound = &WalletError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "wallet not found",
		ExitCode: ExitNotFound,
	}

	ErrWalletExists = &WalletError{
		Code:     "WALLET_EXISTS",
		Message:  "wallet already exists",
		ExitCode: ExitInput,
	}

	ErrInvalidMnemonic = &WalletError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &WalletError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted file",
		ExitCode: ExitAuth,
	}

	ErrInvalidPublicKey = &WalletError{
		Code:     "INVALID_PUBLIC_KEY",
		Message:  "invalid extended public key",
		ExitCode: ExitInput,
	}

	ErrNeedInitialization = &WalletError{
		Code:       "NEED_INITIALIZATION",
		Message:    "wallet must be re-initialized from seed",
		Suggestion: "Run 'kaswallet restore' to derive the account for the configured path",
		ExitCode:   ExitInput,
	}

	ErrNotLoaded = &WalletError{
		Code:       "NOT_LOADED",
		Message:    "wallet is not loaded",
		Suggestion: "Load the wallet before building transactions",
		ExitCode:   ExitGeneral,
	}

	// Chain errors.
	ErrInvalidAddress = &WalletError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address",
		ExitCode: ExitInput,
	}

	ErrInvalidChecksum = &WalletError{
		Code:     "INVALID_CHECKSUM",
		Message:  "invalid address checksum",
		ExitCode: ExitInput,
	}

	ErrUnsupportedVersion = &WalletError{
		Code:     "UNSUPPORTED_VERSION",
		Message:  "unsupported address version",
		ExitCode: ExitInput,
	}

	ErrNetworkError = &WalletError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrInternal = &WalletError{
		Code:     "INTERNAL_ERROR",
		Message:  "transaction submission failed",
		ExitCode: ExitGeneral,
	}

	ErrFeeRateUnavailable = &WalletError{
		Code:       "FEE_RATE_UNAVAILABLE",
		Message:    "fee rate not loaded for tier",
		Suggestion: "Load fee rates from the node first",
		ExitCode:   ExitGeneral,
	}

	ErrMassExceeded = &WalletError{
		Code:       "MASS_EXCEEDED",
		Message:    "transaction exceeds maximum standard mass",
		Suggestion: "Send a smaller amount or consolidate UTXOs first",
		ExitCode:   ExitInput,
	}

	// Amount errors.
	ErrInvalidAmount = &WalletError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrAmountTooSmall = &WalletError{
		Code:     "AMOUNT_TOO_SMALL",
		Message:  "amount is below the minimum transferable value",
		ExitCode: ExitInput,
	}

	ErrAmountTooLarge = &WalletError{
		Code:     "AMOUNT_TOO_LARGE",
		Message:  "amount exceeds the maximum spendable value",
		ExitCode: ExitInput,
	}

	// Config errors.
	ErrConfigNotFound = &WalletError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &WalletError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}
)

// New creates a new WalletError with the given code and message.
func New(code, message string) *WalletError {
	return &WalletError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// InvalidAddress returns ErrInvalidAddress carrying the offending address.
func InvalidAddress(address string, cause error) error {
	return &WalletError{
		Code:     ErrInvalidAddress.Code,
		Message:  ErrInvalidAddress.Message,
		Details:  map[string]string{DetailAddress: address},
		Cause:    cause,
		ExitCode: ErrInvalidAddress.ExitCode,
	}
}

// AmountTooSmall returns ErrAmountTooSmall carrying the minimum in sompi.
func AmountTooSmall(minimum uint64) error {
	return WithDetails(ErrAmountTooSmall, map[string]string{
		DetailLimit: strconv.FormatUint(minimum, 10),
	})
}

// AmountTooLarge returns ErrAmountTooLarge carrying the maximum in sompi.
func AmountTooLarge(maximum uint64) error {
	return WithDetails(ErrAmountTooLarge, map[string]string{
		DetailLimit: strconv.FormatUint(maximum, 10),
	})
}

// AmountLimit extracts the limit carried by AmountTooSmall or AmountTooLarge.
func AmountLimit(err error) (uint64, bool) {
	var we *WalletError
	if !errors.As(err, &we) || we.Details == nil {
		return 0, false
	}
	raw, ok := we.Details[DetailLimit]
	if !ok {
		return 0, false
	}
	v, perr := strconv.ParseUint(raw, 10, 64)
	if perr != nil {
		return 0, false
	}
	return v, true
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    fmt.Sprintf("%s: %s", msg, we.Message),
			Details:    we.Details,
			Suggestion: we.Suggestion,
			Cause:      err,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    details,
			Suggestion: we.Suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    we.Details,
			Suggestion: suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var we *WalletError
	if errors.As(err, &we) {
		return we.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
