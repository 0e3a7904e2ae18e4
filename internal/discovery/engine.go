package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/ledger"
)

// Result is the outcome of one full discovery pass.
type Result struct {
	Book             *ledger.AddressBook
	UTXOs            []ledger.UTXO
	AddressesScanned int
	Duration         time.Duration
}

// Engine runs discovery passes. It holds no wallet state between calls.
type Engine struct {
	client   NodeClient
	deriver  AddressDeriver
	opts     *Options
	logger   Logger
	recorder BatchRecorder
}

// NewEngine creates an Engine. A nil opts selects DefaultOptions.
func NewEngine(client NodeClient, deriver AddressDeriver, opts *Options, logger Logger, recorder BatchRecorder) *Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Engine{
		client:   client,
		deriver:  deriver,
		opts:     opts,
		logger:   logger,
		recorder: recorder,
	}
}

// Discover scans both branches batch by batch, then fetches the UTXOs of
// every used address. Any node error aborts the pass; nothing partial is
// returned.
func (e *Engine) Discover(ctx context.Context) (*Result, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	book := ledger.NewAddressBook()
	scanned := 0

	for _, branch := range hdwallet.Branches {
		n, err := e.scanBranch(ctx, book, branch)
		if err != nil {
			return nil, err
		}
		scanned += n
	}

	used := book.Used()
	var utxos []ledger.UTXO
	if len(used) > 0 {
		fetched, err := e.client.UTXOs(ctx, used)
		if err != nil {
			e.logger.Error("discovery: loading utxos: %v", err)
			return nil, err
		}
		utxos = make([]ledger.UTXO, 0, len(fetched))
		for _, u := range fetched {
			d, ok := book.Derivation(u.Address)
			if !ok {
				e.logger.Error("discovery: node returned utxo for foreign address %s", u.Address)
				continue
			}
			utxos = append(utxos, ledger.UTXO{
				Address:    u.Address,
				Outpoint:   u.Outpoint,
				Entry:      u.Entry,
				Derivation: d,
			})
		}
	}

	e.logger.Debug("discovery: scanned %d addresses, %d used, %d utxos, receive mark %d, change mark %d",
		scanned, len(used), len(utxos), book.LastUsed(hdwallet.Receive), book.LastUsed(hdwallet.Change))

	return &Result{
		Book:             book,
		UTXOs:            utxos,
		AddressesScanned: scanned,
		Duration:         time.Since(start),
	}, nil
}

func (e *Engine) scanBranch(ctx context.Context, book *ledger.AddressBook, branch hdwallet.Branch) (int, error) {
	state := NewBranchState(branch, e.opts)
	scanned := 0

	for !state.Done(e.opts) {
		if err := ctx.Err(); err != nil {
			return scanned, err
		}

		batch := state.Batch()
		addresses := make([]string, len(batch))
		for i, d := range batch {
			a, err := e.deriver.Address(d)
			if err != nil {
				return scanned, fmt.Errorf("deriving %s: %w", d, err)
			}
			addresses[i] = a
			book.Record(a, d)
		}

		infos, err := e.client.ActiveAddresses(ctx, addresses)
		if err != nil {
			e.logger.Error("discovery: %s batch at %d: %v", branch, state.Cursor, err)
			return scanned, err
		}
		if e.recorder != nil {
			e.recorder.RecordDiscoveryBatch()
		}

		activity := make(map[string]bool, len(infos))
		for _, info := range infos {
			if info.Active {
				activity[info.Address] = true
			}
		}
		active := make([]bool, len(addresses))
		for i, a := range addresses {
			active[i] = activity[a]
		}

		var used []hdwallet.DerivationIndex
		state, used = state.Step(active, e.opts)
		for _, d := range used {
			book.MarkUsed(addresses[d.Index-batch[0].Index], d)
		}
		scanned += len(addresses)

		if e.opts.ProgressCallback != nil {
			e.opts.ProgressCallback(ProgressUpdate{
				Branch:           branch,
				AddressesScanned: scanned,
				UsedFound:        len(book.Used()),
			})
		}
	}
	return scanned, nil
}
