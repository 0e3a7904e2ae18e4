// Package wallet ties discovery, the UTXO ledger, fee estimation, the
// transaction assembler, and history into a single-account Kaspa wallet
// with an explicit lifecycle.
package wallet

import (
	"math/big"

	"github.com/mrz1836/kaswallet/internal/assembler"
	"github.com/mrz1836/kaswallet/internal/discovery"
	"github.com/mrz1836/kaswallet/internal/fee"
	"github.com/mrz1836/kaswallet/internal/history"
)

// DummyExchangeDepositAddress is a foreign mainnet address used to preview
// fees before the user has entered a destination.
const DummyExchangeDepositAddress = "kaspa:qpauqsvk7yf9unexwmxsnmg547mhyga37csh0kj53q6xxgl24ydxjsgzthw5j"

// DefaultTxPerPage is the history page size when none is configured.
const DefaultTxPerPage = 10

// State is a step of the wallet lifecycle.
type State string

// Lifecycle states.
const (
	StateCreated            State = "created"
	StateInitializing       State = "initializing"
	StateInitialized        State = "initialized"
	StateNeedInitialization State = "need_initialization"
	StateLoading            State = "loading"
	StateLoaded             State = "loaded"
	StateError              State = "error"
)

// PublicKey is the exportable account key and the path it was derived at.
type PublicKey struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

// PrivateKey is one exported address key, hex encoded.
type PrivateKey struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

// SendRequest describes a payment. Price is the KAS price in USD used for
// the platform fee bounds and may be nil.
type SendRequest struct {
	Address string
	Amount  uint64
	Tier    fee.Tier
	Price   *big.Rat
}

// SendResult is a submitted payment.
type SendResult struct {
	TransactionID string `json:"txid"`
	Amount        uint64 `json:"amount"`
	NetworkFee    uint64 `json:"network_fee"`
	PlatformFee   uint64 `json:"platform_fee"`
	Inputs        int    `json:"inputs"`
	Change        uint64 `json:"change"`
	Balance       uint64 `json:"balance"`
}

// Node is the node API the wallet consumes. *node.Client satisfies it.
type Node interface {
	discovery.NodeClient
	fee.RateSource
	history.Source
	assembler.Submitter
}

// Logger is the interface for wallet logging.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
