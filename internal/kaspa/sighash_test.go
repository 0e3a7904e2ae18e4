package kaspa

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

// keyedDigest hashes the concatenated hex parts with a blake2b-256 keyed by domain.
func keyedDigest(t *testing.T, domain string, parts ...string) string {
	t.Helper()
	raw, err := hex.DecodeString(strings.Join(parts, ""))
	require.NoError(t, err)
	h, err := blake2b.New256([]byte(domain))
	require.NoError(t, err)
	_, _ = h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}

// fixedTransaction returns a one-in one-out transaction with literal field values.
func fixedTransaction(t *testing.T, payload []byte) *Transaction {
	t.Helper()
	var prev TransactionID
	for i := range prev {
		prev[i] = 0x11
	}
	utxoScript, err := hex.DecodeString("20" + strings.Repeat("aa", 32) + "ac")
	require.NoError(t, err)
	outScript, err := hex.DecodeString("20" + strings.Repeat("bb", 32) + "ac")
	require.NoError(t, err)

	return &Transaction{
		Version: 0,
		Inputs: []*TransactionInput{{
			PreviousOutpoint: Outpoint{TransactionID: prev, Index: 2},
			Sequence:         7,
			SigOpCount:       1,
			UtxoEntry: &UtxoEntry{
				Amount:          500_000_000,
				ScriptPublicKey: ScriptPublicKey{Version: 0, Script: utxoScript},
			},
		}},
		Outputs: []*TransactionOutput{{
			Value:           100_000_000,
			ScriptPublicKey: ScriptPublicKey{Version: 0, Script: outScript},
		}},
		LockTime: 9,
		Payload:  payload,
	}
}

// Literal little-endian encodings of fixedTransaction's fields.
var (
	vecVersion    = "0000"
	vecOutpoint   = strings.Repeat("11", 32) + "02000000"
	vecSequence   = "0700000000000000"
	vecSigOps     = "01"
	vecUtxoSPK    = "0000" + "2200000000000000" + "20" + strings.Repeat("aa", 32) + "ac"
	vecAmount     = "0065cd1d00000000"
	vecOutput     = "00e1f50500000000" + "0000" + "2200000000000000" + "20" + strings.Repeat("bb", 32) + "ac"
	vecLockTime   = "0900000000000000"
	vecSubnet     = strings.Repeat("00", 20)
	vecGas        = "0000000000000000"
	vecSigHashAll = "01"
)

// TestSignatureHash_KnownPreimage tests the digest against a byte-for-byte preimage.
func TestSignatureHash_KnownPreimage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		payload     []byte
		payloadHash func(t *testing.T) string
	}{
		{
			name:    "native subnetwork without payload",
			payload: nil,
			payloadHash: func(*testing.T) string {
				return strings.Repeat("00", 32)
			},
		},
		{
			name:    "with payload",
			payload: []byte{0xde, 0xad},
			payloadHash: func(t *testing.T) string {
				return keyedDigest(t, "TransactionSigningHash", "0200000000000000dead")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			want := keyedDigest(t, "TransactionSigningHash",
				vecVersion,
				keyedDigest(t, "TransactionSigningHash", vecOutpoint),
				keyedDigest(t, "TransactionSigningHash", vecSequence),
				keyedDigest(t, "TransactionSigningHash", vecSigOps),
				vecOutpoint,
				vecUtxoSPK,
				vecAmount,
				vecSequence,
				vecSigOps,
				keyedDigest(t, "TransactionSigningHash", vecOutput),
				vecLockTime,
				vecSubnet,
				vecGas,
				tt.payloadHash(t),
				vecSigHashAll,
			)

			got, err := fixedTransaction(t, tt.payload).SignatureHash(0)
			require.NoError(t, err)
			assert.Equal(t, want, hex.EncodeToString(got[:]))
		})
	}
}

// TestTransactionID_KnownPreimage tests the id against a byte-for-byte preimage.
func TestTransactionID_KnownPreimage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload []byte
		encoded string
	}{
		{name: "empty payload", payload: nil, encoded: "0000000000000000"},
		{name: "with payload", payload: []byte{0xde, 0xad}, encoded: "0200000000000000dead"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			want := keyedDigest(t, "TransactionID",
				vecVersion,
				"0100000000000000",
				vecOutpoint,
				"0000000000000000", // empty signature script
				"00",
				vecSequence,
				"0100000000000000",
				vecOutput,
				vecLockTime,
				vecSubnet,
				vecGas,
				tt.encoded,
			)

			tx := fixedTransaction(t, tt.payload)
			assert.Equal(t, want, tx.ID().String())

			// Signing must not move the id.
			tx.Inputs[0].SignatureScript = []byte{0x41, 0x01}
			assert.Equal(t, want, tx.ID().String())
		})
	}
}
