package node

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mrz1836/kaswallet/internal/kaspa"
)

// Uint64 decodes from either a JSON number or a decimal string; the node
// sends amounts as strings and DAA scores as either.
type Uint64 uint64

// UnmarshalJSON implements json.Unmarshaler.
func (u *Uint64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*u = 0
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("decoding integer %q: %w", data, err)
	}
	*u = Uint64(v)
	return nil
}

// MarshalJSON writes the value as a decimal string.
func (u Uint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

// AddressActivity reports whether an address ever appeared on chain.
type AddressActivity struct {
	Address         string `json:"address"`
	Active          bool   `json:"active"`
	LastTxBlockTime *int64 `json:"lastTxBlockTime,omitempty"`
}

type rpcScriptPublicKey struct {
	Version         uint16 `json:"version"`
	ScriptPublicKey string `json:"scriptPublicKey"`
}

type rpcUtxoEntry struct {
	Amount          Uint64             `json:"amount"`
	ScriptPublicKey rpcScriptPublicKey `json:"scriptPublicKey"`
	BlockDAAScore   Uint64             `json:"blockDaaScore"`
	IsCoinbase      bool               `json:"isCoinbase"`
}

type rpcOutpoint struct {
	TransactionID string `json:"transactionId"`
	Index         Uint64 `json:"index"`
}

type rpcUTXO struct {
	Address   string       `json:"address"`
	Outpoint  rpcOutpoint  `json:"outpoint"`
	UtxoEntry rpcUtxoEntry `json:"utxoEntry"`
}

// UTXO is an unspent output reported by the node for one address.
type UTXO struct {
	Address  string
	Outpoint kaspa.Outpoint
	Entry    kaspa.UtxoEntry
}

func (r *rpcUTXO) decode() (UTXO, error) {
	txID, err := kaspa.TransactionIDFromHex(r.Outpoint.TransactionID)
	if err != nil {
		return UTXO{}, fmt.Errorf("utxo for %s: %w", r.Address, err)
	}
	if uint64(r.Outpoint.Index) > uint64(^uint32(0)) {
		return UTXO{}, fmt.Errorf("utxo for %s: output index %d out of range", r.Address, r.Outpoint.Index)
	}
	script, err := hex.DecodeString(r.UtxoEntry.ScriptPublicKey.ScriptPublicKey)
	if err != nil {
		return UTXO{}, fmt.Errorf("utxo for %s: decoding script: %w", r.Address, err)
	}
	return UTXO{
		Address: r.Address,
		Outpoint: kaspa.Outpoint{
			TransactionID: txID,
			Index:         uint32(r.Outpoint.Index),
		},
		Entry: kaspa.UtxoEntry{
			Amount: uint64(r.UtxoEntry.Amount),
			ScriptPublicKey: kaspa.ScriptPublicKey{
				Version: r.UtxoEntry.ScriptPublicKey.Version,
				Script:  script,
			},
			BlockDAAScore: uint64(r.UtxoEntry.BlockDAAScore),
			IsCoinbase:    r.UtxoEntry.IsCoinbase,
		},
	}, nil
}

// FeeRate is one named fee tier as reported by the node.
type FeeRate struct {
	Name  string `json:"name"`
	Value Uint64 `json:"value"`
}

type submitRequest struct {
	Transaction *kaspa.RPCTransaction `json:"transaction"`
}

type submitResponse struct {
	TransactionID string `json:"transactionId"`
	Error         string `json:"error"`
}

// LedgerInput is an input of a historical transaction.
type LedgerInput struct {
	PreviousOutpointAddress string `json:"previous_outpoint_address"`
	PreviousOutpointAmount  Uint64 `json:"previous_outpoint_amount"`
}

// LedgerOutput is an output of a historical transaction. PlatformFee marks
// outputs that paid the platform fee.
type LedgerOutput struct {
	Amount                 Uint64 `json:"amount"`
	ScriptPublicKeyAddress string `json:"script_public_key_address"`
	PlatformFee            bool   `json:"csfee,omitempty"`
}

// LedgerEntry is a raw transaction as returned by the history endpoint.
type LedgerEntry struct {
	TransactionID string         `json:"transaction_id"`
	IsAccepted    bool           `json:"is_accepted"`
	BlockTime     int64          `json:"block_time"`
	Inputs        []LedgerInput  `json:"inputs"`
	Outputs       []LedgerOutput `json:"outputs"`
}
