package ledger

import (
	"errors"
	"fmt"

	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/kaspa"
)

var (
	// ErrUnknownAddress is returned for a UTXO whose address has no record.
	ErrUnknownAddress = errors.New("utxo address is not in the address book")

	// ErrUnknownInput is returned when a diff consumes an outpoint the ledger does not hold.
	ErrUnknownInput = errors.New("consumed outpoint is not in the ledger")
)

// Candidate is an address a freshly built transaction may pay back to the
// wallet: the next unused receive or change address.
type Candidate struct {
	Address    string
	Derivation hdwallet.DerivationIndex
}

// ProducedOutput is one output of a submitted transaction.
type ProducedOutput struct {
	Address         string
	Value           uint64
	ScriptPublicKey kaspa.ScriptPublicKey
}

// Diff describes the local effect of one submitted transaction.
type Diff struct {
	TransactionID kaspa.TransactionID
	Consumed      []kaspa.Outpoint
	Outputs       []ProducedOutput
	Candidates    []Candidate
}

// Apply returns a new ledger with the consumed outpoints removed and every
// output paying a wallet address added as a UTXO with a zero DAA score.
// An output paying a candidate address marks it used first. The receiver
// is left untouched.
func (l *Ledger) Apply(d Diff) (*Ledger, error) {
	consumed := make(map[kaspa.Outpoint]struct{}, len(d.Consumed))
	for _, op := range d.Consumed {
		consumed[op] = struct{}{}
	}

	utxos := make([]UTXO, 0, len(l.utxos)+len(d.Outputs))
	for _, u := range l.utxos {
		if _, ok := consumed[u.Outpoint]; ok {
			delete(consumed, u.Outpoint)
			continue
		}
		utxos = append(utxos, u)
	}
	for _, op := range d.Consumed {
		if _, missing := consumed[op]; missing {
			return nil, fmt.Errorf("%w: %s:%d", ErrUnknownInput, op.TransactionID, op.Index)
		}
	}

	book := l.book.Clone()
	candidates := make(map[string]hdwallet.DerivationIndex, len(d.Candidates))
	for _, c := range d.Candidates {
		candidates[c.Address] = c.Derivation
	}

	for i, out := range d.Outputs {
		if deriv, ok := candidates[out.Address]; ok {
			book.MarkUsed(out.Address, deriv)
		}
		if !book.IsUsed(out.Address) {
			continue
		}
		deriv, _ := book.Derivation(out.Address)
		utxos = append(utxos, UTXO{
			Address: out.Address,
			Outpoint: kaspa.Outpoint{
				TransactionID: d.TransactionID,
				Index:         uint32(i),
			},
			Entry: kaspa.UtxoEntry{
				Amount:          out.Value,
				ScriptPublicKey: out.ScriptPublicKey,
			},
			Derivation: deriv,
		})
	}

	return &Ledger{utxos: utxos, book: book}, nil
}
