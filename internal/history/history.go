// Package history turns raw ledger entries from the node into ordered
// incoming and outgoing transaction records.
package history

import (
	"context"
	"sort"
	"time"

	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/node"
)

// DefaultConfirmations is the depth reported for accepted transactions
// when none is configured.
const DefaultConfirmations = 10

// Status is the acceptance state of a transaction.
type Status string

// Transaction states.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

// Record is one reconciled transaction. Amount and Fee are in sompi.
type Record struct {
	ID       string    `json:"id"`
	Incoming bool      `json:"incoming"`
	To       string    `json:"to,omitempty"`
	Amount   int64     `json:"amount"`
	Fee      int64     `json:"fee"`
	Time     time.Time `json:"timestamp"`
	Status   Status    `json:"status"`

	Confirmations    int    `json:"confirmations"`
	MinConfirmations int    `json:"min_confirmations"`
	ExplorerURL      string `json:"explorer_url"`
}

// AddressSet reports whether an address belongs to the wallet.
// *ledger.AddressBook satisfies it.
type AddressSet interface {
	Known(address string) bool
}

// Reconciler maps ledger entries to records.
type Reconciler struct {
	params        *kaspa.Params
	confirmations int
}

// NewReconciler creates a Reconciler. A non-positive confirmations value
// selects DefaultConfirmations.
func NewReconciler(params *kaspa.Params, confirmations int) *Reconciler {
	if confirmations <= 0 {
		confirmations = DefaultConfirmations
	}
	return &Reconciler{params: params, confirmations: confirmations}
}

// Reconcile orders entries pending first, then newest first, and derives
// direction, amount, and fee from which inputs and outputs are owned.
// The entries slice is not modified.
func (r *Reconciler) Reconcile(entries []node.LedgerEntry, owned AddressSet) []Record {
	sorted := make([]node.LedgerEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsAccepted != b.IsAccepted {
			return !a.IsAccepted
		}
		if !a.IsAccepted {
			return false
		}
		return a.BlockTime > b.BlockTime
	})

	records := make([]Record, len(sorted))
	for i := range sorted {
		records[i] = r.record(&sorted[i], owned)
	}
	return records
}

func (r *Reconciler) record(e *node.LedgerEntry, owned AddressSet) Record {
	var inputValue, outputValue, platformFee int64
	var inputTotal, outputTotal int64

	for _, in := range e.Inputs {
		amount := int64(in.PreviousOutpointAmount) //nolint:gosec // supply fits int64
		inputTotal += amount
		if owned.Known(in.PreviousOutpointAddress) {
			inputValue += amount
		}
	}
	for _, out := range e.Outputs {
		amount := int64(out.Amount) //nolint:gosec // supply fits int64
		outputTotal += amount
		switch {
		case owned.Known(out.ScriptPublicKeyAddress):
			outputValue += amount
		case out.PlatformFee:
			platformFee += amount
		}
	}

	var minerFee int64
	if len(e.Inputs) > 0 {
		minerFee = inputTotal - outputTotal
	}
	totalFee := platformFee + minerFee

	rec := Record{
		ID:               e.TransactionID,
		Fee:              totalFee,
		Time:             time.UnixMilli(e.BlockTime),
		Status:           StatusPending,
		MinConfirmations: r.confirmations,
		ExplorerURL:      r.params.TransactionURL(e.TransactionID),
	}
	if e.IsAccepted {
		rec.Status = StatusConfirmed
		rec.Confirmations = r.confirmations
	}

	net := outputValue - inputValue
	if net > 0 {
		rec.Incoming = true
		rec.Amount = net
		return rec
	}
	rec.Amount = -net - totalFee
	if len(e.Outputs) > 0 {
		rec.To = e.Outputs[0].ScriptPublicKeyAddress
	}
	return rec
}

// Page is one slice of the reconciled history.
type Page struct {
	Transactions []Record `json:"transactions"`
	HasMore      bool     `json:"has_more"`
	Cursor       int      `json:"cursor"`
}

// Paginate returns perPage records starting at cursor.
func Paginate(records []Record, cursor, perPage int) Page {
	if cursor < 0 {
		cursor = 0
	}
	if perPage <= 0 {
		perPage = len(records)
	}
	start := min(cursor, len(records))
	end := min(cursor+perPage, len(records))
	return Page{
		Transactions: append([]Record(nil), records[start:end]...),
		HasMore:      len(records) > cursor+perPage,
		Cursor:       cursor + perPage,
	}
}

// Source fetches raw ledger entries for a set of addresses.
type Source interface {
	Transactions(ctx context.Context, addresses []string) ([]node.LedgerEntry, error)
}

// Load fetches the history of the used addresses and reconciles it
// against every known address.
func (r *Reconciler) Load(ctx context.Context, src Source, used []string, owned AddressSet) ([]Record, error) {
	if len(used) == 0 {
		return nil, nil
	}
	entries, err := src.Transactions(ctx, used)
	if err != nil {
		return nil, err
	}
	return r.Reconcile(entries, owned), nil
}
