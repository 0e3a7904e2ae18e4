// Package discovery finds the used addresses of an account by walking the
// receive and change branches until a gap of unused addresses is observed,
// then loads the UTXOs of every used address.
package discovery

import (
	"context"
	"fmt"

	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/node"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// Default scanning parameters.
const (
	// DefaultGapLimit is how many consecutive unused addresses end a branch.
	DefaultGapLimit = 1

	// DefaultBatchSize is the size of the first activity query on a branch.
	DefaultBatchSize = 3

	// DefaultBatchSizeMax caps the batch size as it grows by one per query.
	DefaultBatchSizeMax = 10
)

// ErrInvalidOptions indicates discovery was configured with unusable values.
var ErrInvalidOptions = &walleterr.WalletError{
	Code:     "INVALID_DISCOVERY_OPTIONS",
	Message:  "invalid discovery options",
	ExitCode: walleterr.ExitInput,
}

// ProgressUpdate reports scan progress after each batch.
type ProgressUpdate struct {
	Branch           hdwallet.Branch
	AddressesScanned int
	UsedFound        int
}

// ProgressCallback is called during scanning to report progress.
type ProgressCallback func(ProgressUpdate)

// Options configures discovery.
type Options struct {
	GapLimit         int
	BatchSize        int
	BatchSizeMax     int
	ProgressCallback ProgressCallback
}

// DefaultOptions returns the standard scan parameters.
func DefaultOptions() *Options {
	return &Options{
		GapLimit:     DefaultGapLimit,
		BatchSize:    DefaultBatchSize,
		BatchSizeMax: DefaultBatchSizeMax,
	}
}

// Validate checks that the options are usable.
func (o *Options) Validate() error {
	switch {
	case o.GapLimit < 1:
		return walleterr.WithDetails(ErrInvalidOptions, map[string]string{"gap_limit": fmt.Sprint(o.GapLimit)})
	case o.BatchSize < 1:
		return walleterr.WithDetails(ErrInvalidOptions, map[string]string{"batch_size": fmt.Sprint(o.BatchSize)})
	case o.BatchSizeMax < o.BatchSize:
		return walleterr.WithDetails(ErrInvalidOptions, map[string]string{"batch_size_max": fmt.Sprint(o.BatchSizeMax)})
	}
	return nil
}

// NodeClient is the subset of the node API discovery needs.
type NodeClient interface {
	ActiveAddresses(ctx context.Context, addresses []string) ([]node.AddressActivity, error)
	UTXOs(ctx context.Context, addresses []string) ([]node.UTXO, error)
}

// AddressDeriver derives the address at a derivation index.
type AddressDeriver interface {
	Address(d hdwallet.DerivationIndex) (string, error)
}

// Logger is the interface for discovery logging.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// BatchRecorder counts activity queries.
type BatchRecorder interface {
	RecordDiscoveryBatch()
}
