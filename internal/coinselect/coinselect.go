// Package coinselect picks the inputs that fund a Kaspa transaction.
package coinselect

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/ledger"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// DustLimit is the smallest change output worth creating, in sompi.
// Anything below it is left to the miner.
const DustLimit = 600

// maxChangeRounds bounds the fee/change fixed point. Only storage mass
// moves between rounds and it settles in two or three.
const maxChangeRounds = 10

// Selection is a funded input set.
type Selection struct {
	Inputs []ledger.UTXO
	// Fee is everything the inputs carry beyond outputs and change.
	Fee    uint64
	Change uint64
	Mass   uint64
}

// Total returns the sum of the selected inputs.
func (s *Selection) Total() uint64 {
	var total uint64
	for _, u := range s.Inputs {
		total += u.Entry.Amount
	}
	return total
}

// Selector picks inputs largest first.
type Selector struct {
	// MassLimit defaults to the standard transaction mass ceiling.
	MassLimit uint64
}

// New returns a Selector bound to the standard mass ceiling.
func New() *Selector {
	return &Selector{MassLimit: kaspa.MaximumStandardTransactionMass}
}

// SortLargestFirst returns a copy of utxos ordered by descending amount.
// Equal amounts keep their ledger order.
func SortLargestFirst(utxos []ledger.UTXO) []ledger.UTXO {
	sorted := make([]ledger.UTXO, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Entry.Amount > sorted[j].Entry.Amount
	})
	return sorted
}

// Select funds outputs at feeRate sompi per gram of mass. A change output
// paying changeScript is added when it is not dust and still fits the mass
// ceiling; otherwise the leftover is absorbed into the fee.
func (s *Selector) Select(utxos []ledger.UTXO, outputs []*kaspa.TransactionOutput, feeRate uint64, changeScript kaspa.ScriptPublicKey) (*Selection, error) {
	limit := s.MassLimit
	if limit == 0 {
		limit = kaspa.MaximumStandardTransactionMass
	}

	var outSum uint64
	for _, out := range outputs {
		outSum += out.Value
	}

	sorted := SortLargestFirst(utxos)
	var (
		selected []ledger.UTXO
		amounts  []uint64
		total    uint64
		fallback *Selection
	)

	for _, u := range sorted {
		selected = append(selected, u)
		amounts = append(amounts, u.Entry.Amount)
		total += u.Entry.Amount

		mass := kaspa.TransactionMass(amounts, outputs)
		if mass > limit {
			if fallback != nil {
				return fallback, nil
			}
			return nil, massExceeded(mass, limit)
		}

		feeNoChange := mass * feeRate
		if total < outSum+feeNoChange {
			continue
		}
		leftover := total - outSum

		change, changeMass, ok := settleChange(amounts, outputs, total-outSum, feeRate, changeScript)
		if ok && change >= DustLimit && changeMass <= limit {
			return &Selection{
				Inputs: cloneUTXOs(selected),
				Fee:    leftover - change,
				Change: change,
				Mass:   changeMass,
			}, nil
		}

		noChange := &Selection{
			Inputs: cloneUTXOs(selected),
			Fee:    leftover,
			Mass:   mass,
		}
		if leftover-feeNoChange < DustLimit {
			return noChange, nil
		}
		// The change would be worth keeping but does not fit. Keep the
		// soft-dust result and see whether another input makes room.
		if fallback == nil {
			fallback = noChange
		}
	}

	if fallback != nil {
		return fallback, nil
	}

	var needed uint64
	if len(amounts) > 0 {
		needed = outSum + kaspa.TransactionMass(amounts, outputs)*feeRate
	}
	return nil, walleterr.WithDetails(walleterr.ErrInsufficientFunds, map[string]string{
		"required":  strconv.FormatUint(needed, 10),
		"available": strconv.FormatUint(total, 10),
	})
}

// settleChange iterates change = available - fee(change) until the fee
// stops moving.
func settleChange(inputs []uint64, outputs []*kaspa.TransactionOutput, available, feeRate uint64, script kaspa.ScriptPublicKey) (change, mass uint64, ok bool) {
	withChange := make([]*kaspa.TransactionOutput, len(outputs), len(outputs)+1)
	copy(withChange, outputs)
	changeOut := &kaspa.TransactionOutput{ScriptPublicKey: script}
	withChange = append(withChange, changeOut)

	fee := kaspa.TransactionMass(inputs, outputs) * feeRate
	for range maxChangeRounds {
		if available <= fee {
			return 0, 0, false
		}
		changeOut.Value = available - fee
		mass = kaspa.TransactionMass(inputs, withChange)
		next := mass * feeRate
		if next == fee {
			return changeOut.Value, mass, true
		}
		fee = next
	}
	return 0, 0, false
}

// MaxInputs returns how many inputs fit a transaction with numOutputs
// standard outputs.
func MaxInputs(numOutputs int) int {
	return kaspa.MaxInputsPerTransaction(numOutputs)
}

func massExceeded(mass, limit uint64) error {
	return walleterr.WithDetails(walleterr.ErrMassExceeded, map[string]string{
		"mass":  strconv.FormatUint(mass, 10),
		"limit": strconv.FormatUint(limit, 10),
	})
}

func cloneUTXOs(in []ledger.UTXO) []ledger.UTXO {
	out := make([]ledger.UTXO, len(in))
	copy(out, in)
	return out
}

// String implements fmt.Stringer for logging.
func (s *Selection) String() string {
	return fmt.Sprintf("%d inputs, fee %d, change %d, mass %d", len(s.Inputs), s.Fee, s.Change, s.Mass)
}
