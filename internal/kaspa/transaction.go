package kaspa

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
)

// Hash domains for keyed blake2b.
const (
	transactionIDDomain      = "TransactionID"
	transactionSigningDomain = "TransactionSigningHash"
)

// SubnetworkIDSize is the length of a subnetwork id.
const SubnetworkIDSize = 20

// TransactionID is a 32 byte transaction hash.
type TransactionID [32]byte

// String returns the hex encoding of the id.
func (id TransactionID) String() string {
	return hex.EncodeToString(id[:])
}

// TransactionIDFromHex parses a hex encoded transaction id.
func TransactionIDFromHex(s string) (TransactionID, error) {
	var id TransactionID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("decode transaction id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("%w: transaction id is %d bytes", errInvalidDataLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Outpoint references a previous transaction output.
type Outpoint struct {
	TransactionID TransactionID
	Index         uint32
}

// UtxoEntry describes the output an input spends.
type UtxoEntry struct {
	Amount          uint64
	ScriptPublicKey ScriptPublicKey
	BlockDAAScore   uint64
	IsCoinbase      bool
}

// TransactionInput spends a previous output.
type TransactionInput struct {
	PreviousOutpoint Outpoint
	SignatureScript  []byte
	Sequence         uint64
	SigOpCount       uint8
	UtxoEntry        *UtxoEntry
}

// TransactionOutput pays an amount to a locking script.
type TransactionOutput struct {
	Value           uint64
	ScriptPublicKey ScriptPublicKey
}

// Transaction is a native-subnetwork Kaspa transaction.
type Transaction struct {
	Version      uint16
	Inputs       []*TransactionInput
	Outputs      []*TransactionOutput
	LockTime     uint64
	SubnetworkID [SubnetworkIDSize]byte
	Gas          uint64
	Payload      []byte
}

func newHasher(domain string) hash.Hash {
	h, err := blake2b.New256([]byte(domain))
	if err != nil {
		// Only fails for keys longer than 64 bytes.
		panic(err)
	}
	return h
}

func writeUint16(w io.Writer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, _ = w.Write(b[:])
}

func writeUint32(w io.Writer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, _ = w.Write(b[:])
}

func writeUint64(w io.Writer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, _ = w.Write(b[:])
}

func writeVarBytes(w io.Writer, data []byte) {
	writeUint64(w, uint64(len(data)))
	_, _ = w.Write(data)
}

func writeOutpoint(w io.Writer, op *Outpoint) {
	_, _ = w.Write(op.TransactionID[:])
	writeUint32(w, op.Index)
}

func writeOutput(w io.Writer, out *TransactionOutput) {
	writeUint64(w, out.Value)
	writeUint16(w, out.ScriptPublicKey.Version)
	writeVarBytes(w, out.ScriptPublicKey.Script)
}

// ID computes the transaction id. Signature scripts are excluded so the id
// is stable across signing.
func (tx *Transaction) ID() TransactionID {
	h := newHasher(transactionIDDomain)
	writeUint16(h, tx.Version)
	writeUint64(h, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		writeOutpoint(h, &in.PreviousOutpoint)
		writeVarBytes(h, nil)
		_, _ = h.Write([]byte{0})
		writeUint64(h, in.Sequence)
	}
	writeUint64(h, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		writeOutput(h, out)
	}
	writeUint64(h, tx.LockTime)
	_, _ = h.Write(tx.SubnetworkID[:])
	writeUint64(h, tx.Gas)
	writeVarBytes(h, tx.Payload)

	var id TransactionID
	copy(id[:], h.Sum(nil))
	return id
}

// InputAmounts returns the amounts of the outputs spent by each input.
func (tx *Transaction) InputAmounts() []uint64 {
	amounts := make([]uint64, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if in.UtxoEntry != nil {
			amounts[i] = in.UtxoEntry.Amount
		}
	}
	return amounts
}

// Mass returns the transaction mass assuming Schnorr-signed inputs.
func (tx *Transaction) Mass() uint64 {
	return TransactionMass(tx.InputAmounts(), tx.Outputs)
}

// RPCOutpoint is the JSON form of an outpoint.
type RPCOutpoint struct {
	TransactionID string `json:"transactionId"`
	Index         uint32 `json:"index"`
}

// RPCInput is the JSON form of an input.
type RPCInput struct {
	PreviousOutpoint RPCOutpoint `json:"previousOutpoint"`
	SignatureScript  string      `json:"signatureScript"`
	Sequence         uint64      `json:"sequence"`
	SigOpCount       uint8       `json:"sigOpCount"`
}

// RPCScriptPublicKey is the JSON form of a locking script.
type RPCScriptPublicKey struct {
	Version         uint16 `json:"version"`
	ScriptPublicKey string `json:"scriptPublicKey"`
}

// RPCOutput is the JSON form of an output.
type RPCOutput struct {
	Amount          uint64             `json:"amount"`
	ScriptPublicKey RPCScriptPublicKey `json:"scriptPublicKey"`
}

// RPCTransaction is the transaction shape accepted by the node submit endpoint.
type RPCTransaction struct {
	Version      uint16      `json:"version"`
	Inputs       []RPCInput  `json:"inputs"`
	Outputs      []RPCOutput `json:"outputs"`
	LockTime     uint64      `json:"lockTime"`
	SubnetworkID string      `json:"subnetworkId"`
}

// ToRPC converts the transaction for submission.
func (tx *Transaction) ToRPC() *RPCTransaction {
	rpc := &RPCTransaction{
		Version:      tx.Version,
		Inputs:       make([]RPCInput, len(tx.Inputs)),
		Outputs:      make([]RPCOutput, len(tx.Outputs)),
		LockTime:     tx.LockTime,
		SubnetworkID: hex.EncodeToString(tx.SubnetworkID[:]),
	}
	for i, in := range tx.Inputs {
		rpc.Inputs[i] = RPCInput{
			PreviousOutpoint: RPCOutpoint{
				TransactionID: in.PreviousOutpoint.TransactionID.String(),
				Index:         in.PreviousOutpoint.Index,
			},
			SignatureScript: hex.EncodeToString(in.SignatureScript),
			Sequence:        in.Sequence,
			SigOpCount:      in.SigOpCount,
		}
	}
	for i, out := range tx.Outputs {
		rpc.Outputs[i] = RPCOutput{
			Amount: out.Value,
			ScriptPublicKey: RPCScriptPublicKey{
				Version:         out.ScriptPublicKey.Version,
				ScriptPublicKey: out.ScriptPublicKey.Hex(),
			},
		}
	}
	return rpc
}
