package kaspa

import (
	"errors"
	"fmt"
)

// SigHashAll commits to every input and output.
const SigHashAll uint8 = 0x01

var errMissingUtxoEntry = errors.New("input is missing its utxo entry")

func (tx *Transaction) previousOutputsHash() []byte {
	h := newHasher(transactionSigningDomain)
	for _, in := range tx.Inputs {
		writeOutpoint(h, &in.PreviousOutpoint)
	}
	return h.Sum(nil)
}

func (tx *Transaction) sequencesHash() []byte {
	h := newHasher(transactionSigningDomain)
	for _, in := range tx.Inputs {
		writeUint64(h, in.Sequence)
	}
	return h.Sum(nil)
}

func (tx *Transaction) sigOpCountsHash() []byte {
	h := newHasher(transactionSigningDomain)
	for _, in := range tx.Inputs {
		_, _ = h.Write([]byte{in.SigOpCount})
	}
	return h.Sum(nil)
}

func (tx *Transaction) outputsHash() []byte {
	h := newHasher(transactionSigningDomain)
	for _, out := range tx.Outputs {
		writeOutput(h, out)
	}
	return h.Sum(nil)
}

func (tx *Transaction) payloadHash() []byte {
	if tx.SubnetworkID == [SubnetworkIDSize]byte{} && len(tx.Payload) == 0 {
		return make([]byte, 32)
	}
	h := newHasher(transactionSigningDomain)
	writeVarBytes(h, tx.Payload)
	return h.Sum(nil)
}

// SignatureHash computes the SigHashAll digest for input idx.
func (tx *Transaction) SignatureHash(idx int) ([32]byte, error) {
	var digest [32]byte
	if idx < 0 || idx >= len(tx.Inputs) {
		return digest, fmt.Errorf("input index %d out of range", idx)
	}
	in := tx.Inputs[idx]
	if in.UtxoEntry == nil {
		return digest, fmt.Errorf("%w: input %d", errMissingUtxoEntry, idx)
	}

	h := newHasher(transactionSigningDomain)
	writeUint16(h, tx.Version)
	_, _ = h.Write(tx.previousOutputsHash())
	_, _ = h.Write(tx.sequencesHash())
	_, _ = h.Write(tx.sigOpCountsHash())
	writeOutpoint(h, &in.PreviousOutpoint)
	writeUint16(h, in.UtxoEntry.ScriptPublicKey.Version)
	writeVarBytes(h, in.UtxoEntry.ScriptPublicKey.Script)
	writeUint64(h, in.UtxoEntry.Amount)
	writeUint64(h, in.Sequence)
	_, _ = h.Write([]byte{in.SigOpCount})
	_, _ = h.Write(tx.outputsHash())
	writeUint64(h, tx.LockTime)
	_, _ = h.Write(tx.SubnetworkID[:])
	writeUint64(h, tx.Gas)
	_, _ = h.Write(tx.payloadHash())
	_, _ = h.Write([]byte{SigHashAll})

	copy(digest[:], h.Sum(nil))
	return digest, nil
}
