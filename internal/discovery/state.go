package discovery

import (
	"github.com/mrz1836/kaswallet/internal/hdwallet"
)

// BranchState is the scan position on one branch. It is a value type;
// Step returns the successor state and never mutates its receiver.
type BranchState struct {
	Branch    hdwallet.Branch
	Cursor    uint32
	BatchSize int
	GapCount  int
	LastUsed  int64
}

// NewBranchState returns the initial state for branch.
func NewBranchState(branch hdwallet.Branch, opts *Options) BranchState {
	return BranchState{
		Branch:    branch,
		BatchSize: opts.BatchSize,
		LastUsed:  -1,
	}
}

// Done reports whether the branch has seen enough unused addresses.
func (s BranchState) Done(opts *Options) bool {
	return s.GapCount >= opts.GapLimit
}

// Batch returns the derivation indexes of the next query, in ascending order.
func (s BranchState) Batch() []hdwallet.DerivationIndex {
	out := make([]hdwallet.DerivationIndex, s.BatchSize)
	for i := range out {
		out[i] = hdwallet.DerivationIndex{Branch: s.Branch, Index: s.Cursor + uint32(i)}
	}
	return out
}

// Step folds the activity of the current batch, given in index order, into
// the state and returns it along with the indexes found active.
func (s BranchState) Step(active []bool, opts *Options) (BranchState, []hdwallet.DerivationIndex) {
	var used []hdwallet.DerivationIndex
	for i, ok := range active {
		idx := s.Cursor + uint32(i)
		if ok {
			s.GapCount = 0
			s.LastUsed = int64(idx)
			used = append(used, hdwallet.DerivationIndex{Branch: s.Branch, Index: idx})
			continue
		}
		s.GapCount++
	}
	s.Cursor += uint32(len(active))
	s.BatchSize = min(s.BatchSize+1, opts.BatchSizeMax)
	return s, used
}
