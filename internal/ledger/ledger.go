// Package ledger holds the wallet's UTXO set and address book as immutable
// snapshots. Balance is always the sum over the live UTXO set.
package ledger

import (
	"fmt"

	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/kaspa"
)

// UTXO is a spendable output owned by the wallet.
type UTXO struct {
	Address    string
	Outpoint   kaspa.Outpoint
	Entry      kaspa.UtxoEntry
	Derivation hdwallet.DerivationIndex
}

// Ledger is an immutable snapshot of wallet state.
type Ledger struct {
	utxos []UTXO
	book  *AddressBook
}

// Empty returns a ledger with no addresses and no UTXOs.
func Empty() *Ledger {
	return &Ledger{book: NewAddressBook()}
}

// ReplaceAll returns a ledger holding exactly the given book and UTXOs, as
// produced by a discovery pass.
func ReplaceAll(book *AddressBook, utxos []UTXO) (*Ledger, error) {
	if book == nil {
		book = NewAddressBook()
	}
	for _, u := range utxos {
		if !book.Known(u.Address) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAddress, u.Address)
		}
	}
	return &Ledger{
		utxos: append([]UTXO(nil), utxos...),
		book:  book,
	}, nil
}

// UTXOs returns a copy of the live UTXO set.
func (l *Ledger) UTXOs() []UTXO {
	return append([]UTXO(nil), l.utxos...)
}

// Len returns the number of live UTXOs.
func (l *Ledger) Len() int {
	return len(l.utxos)
}

// Book returns the address book. Callers must not mutate it.
func (l *Ledger) Book() *AddressBook {
	return l.book
}

// Balance returns the sum of all live UTXO amounts in sompi.
func (l *Ledger) Balance() uint64 {
	var total uint64
	for _, u := range l.utxos {
		total += u.Entry.Amount
	}
	return total
}
