package ledger

import (
	"github.com/mrz1836/kaswallet/internal/hdwallet"
)

// NoneUsed is the high-water mark of a branch with no used address.
const NoneUsed int64 = -1

// AddressBook records every derived address with its derivation index, the
// subset known to be used, and the per-branch high-water marks. Records are
// only ever appended. An AddressBook is treated as immutable once shared;
// mutate a Clone.
type AddressBook struct {
	records  map[string]hdwallet.DerivationIndex
	used     []string
	usedSet  map[string]struct{}
	lastUsed [2]int64
}

// NewAddressBook creates an empty book.
func NewAddressBook() *AddressBook {
	return &AddressBook{
		records:  make(map[string]hdwallet.DerivationIndex),
		usedSet:  make(map[string]struct{}),
		lastUsed: [2]int64{NoneUsed, NoneUsed},
	}
}

// Clone returns a deep copy.
func (b *AddressBook) Clone() *AddressBook {
	c := &AddressBook{
		records:  make(map[string]hdwallet.DerivationIndex, len(b.records)),
		used:     append([]string(nil), b.used...),
		usedSet:  make(map[string]struct{}, len(b.usedSet)),
		lastUsed: b.lastUsed,
	}
	for k, v := range b.records {
		c.records[k] = v
	}
	for k := range b.usedSet {
		c.usedSet[k] = struct{}{}
	}
	return c
}

// Record remembers the derivation index of an address.
func (b *AddressBook) Record(address string, d hdwallet.DerivationIndex) {
	if _, ok := b.records[address]; !ok {
		b.records[address] = d
	}
}

// MarkUsed records address as used and raises its branch high-water mark.
// Marking an already used address only adjusts the mark.
func (b *AddressBook) MarkUsed(address string, d hdwallet.DerivationIndex) {
	b.Record(address, d)
	if _, ok := b.usedSet[address]; !ok {
		b.usedSet[address] = struct{}{}
		b.used = append(b.used, address)
	}
	if int64(d.Index) > b.lastUsed[d.Branch] {
		b.lastUsed[d.Branch] = int64(d.Index)
	}
}

// Derivation returns the derivation index of a known address.
func (b *AddressBook) Derivation(address string) (hdwallet.DerivationIndex, bool) {
	d, ok := b.records[address]
	return d, ok
}

// Known reports whether address was ever derived by this wallet.
func (b *AddressBook) Known(address string) bool {
	_, ok := b.records[address]
	return ok
}

// IsUsed reports whether address is in the used set.
func (b *AddressBook) IsUsed(address string) bool {
	_, ok := b.usedSet[address]
	return ok
}

// Used returns used addresses in the order they were found.
func (b *AddressBook) Used() []string {
	return append([]string(nil), b.used...)
}

// LastUsed returns the high-water mark of branch, or NoneUsed.
func (b *AddressBook) LastUsed(branch hdwallet.Branch) int64 {
	return b.lastUsed[branch]
}

// Next returns the derivation index of the first unused address on branch.
func (b *AddressBook) Next(branch hdwallet.Branch) hdwallet.DerivationIndex {
	return hdwallet.DerivationIndex{Branch: branch, Index: uint32(b.lastUsed[branch] + 1)}
}

// Size returns how many addresses have been derived.
func (b *AddressBook) Size() int {
	return len(b.records)
}
