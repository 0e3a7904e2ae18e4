package coinselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/ledger"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

const (
	sompi        = kaspa.SompiPerKaspa
	platformFee  = 583_771_162
	maxTenInputs = 416_216_738
)

func script() kaspa.ScriptPublicKey {
	return kaspa.ScriptPublicKey{Script: make([]byte, kaspa.StandardOutputScriptSize)}
}

func utxos(n int, amount uint64) []ledger.UTXO {
	out := make([]ledger.UTXO, n)
	for i := range out {
		out[i].Outpoint.Index = uint32(i)
		out[i].Entry = kaspa.UtxoEntry{Amount: amount, ScriptPublicKey: script()}
	}
	return out
}

func outputs(values ...uint64) []*kaspa.TransactionOutput {
	out := make([]*kaspa.TransactionOutput, len(values))
	for i, v := range values {
		out[i] = &kaspa.TransactionOutput{Value: v, ScriptPublicKey: script()}
	}
	return out
}

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		utxos      []ledger.UTXO
		outputs    []*kaspa.TransactionOutput
		rate       uint64
		wantInputs int
		wantFee    uint64
		wantChange uint64
	}{
		{
			name:       "change output",
			utxos:      utxos(10, sompi),
			outputs:    outputs(sompi, platformFee),
			rate:       1,
			wantInputs: 7,
			wantFee:    9156,
			wantChange: 16_219_682,
		},
		{
			name:       "change at double rate",
			utxos:      utxos(10, sompi),
			outputs:    outputs(4*sompi, platformFee),
			rate:       2,
			wantInputs: 10,
			wantFee:    25_020,
			wantChange: 16_203_818,
		},
		{
			name:       "leftover below dust is absorbed",
			utxos:      utxos(10, sompi),
			outputs:    outputs(maxTenInputs, platformFee),
			rate:       1,
			wantInputs: 10,
			wantFee:    12_100,
		},
		{
			name:       "change too heavy is absorbed",
			utxos:      utxos(10, sompi),
			outputs:    outputs(maxTenInputs-2_000_000, platformFee),
			rate:       1,
			wantInputs: 10,
			wantFee:    2_012_100,
		},
		{
			name:       "single output",
			utxos:      utxos(3, 10*sompi),
			outputs:    outputs(15 * sompi),
			rate:       1,
			wantInputs: 2,
			wantFee:    3_154,
			wantChange: 5*sompi - 3_154,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sel, err := New().Select(tc.utxos, tc.outputs, tc.rate, script())
			require.NoError(t, err)
			assert.Len(t, sel.Inputs, tc.wantInputs)
			assert.Equal(t, tc.wantFee, sel.Fee)
			assert.Equal(t, tc.wantChange, sel.Change)
			assert.LessOrEqual(t, sel.Mass, kaspa.MaximumStandardTransactionMass)
		})
	}
}

func TestSelect_LargestFirst(t *testing.T) {
	t.Parallel()

	set := append(utxos(2, sompi), utxos(1, 50*sompi)...)
	sel, err := New().Select(set, outputs(10*sompi), 1, script())
	require.NoError(t, err)
	require.Len(t, sel.Inputs, 1)
	assert.Equal(t, 50*sompi, sel.Inputs[0].Entry.Amount)
	assert.Equal(t, 50*sompi, sel.Total())
}

func TestSelect_InsufficientFunds(t *testing.T) {
	t.Parallel()

	_, err := New().Select(utxos(10, sompi), outputs(20*sompi), 1, script())
	require.ErrorIs(t, err, walleterr.ErrInsufficientFunds)

	_, err = New().Select(nil, outputs(sompi), 1, script())
	require.ErrorIs(t, err, walleterr.ErrInsufficientFunds)

	// inputs cover the outputs but not the fee
	_, err = New().Select(utxos(1, sompi), outputs(sompi), 1, script())
	require.ErrorIs(t, err, walleterr.ErrInsufficientFunds)
}

func TestSelect_MassExceeded(t *testing.T) {
	t.Parallel()

	_, err := New().Select(utxos(100, sompi), outputs(95*sompi), 1, script())
	require.ErrorIs(t, err, walleterr.ErrMassExceeded)
}

func TestSortLargestFirst_Stable(t *testing.T) {
	t.Parallel()

	set := utxos(4, sompi)
	set[2].Entry.Amount = 2 * sompi
	sorted := SortLargestFirst(set)

	assert.Equal(t, uint32(2), sorted[0].Outpoint.Index)
	assert.Equal(t, []uint32{0, 1, 3}, []uint32{sorted[1].Outpoint.Index, sorted[2].Outpoint.Index, sorted[3].Outpoint.Index})
	assert.Equal(t, 2*sompi, set[2].Entry.Amount, "input slice must not be reordered")
}

func TestMaxInputs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 88, MaxInputs(1))
	assert.Equal(t, 88, MaxInputs(2))
}

func TestSelect_BalanceProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		amounts := rapid.SliceOfN(rapid.Uint64Range(sompi/10, 100*sompi), 1, 40).Draw(rt, "utxos")
		set := make([]ledger.UTXO, len(amounts))
		var total uint64
		for i, a := range amounts {
			set[i].Entry = kaspa.UtxoEntry{Amount: a, ScriptPublicKey: script()}
			set[i].Outpoint.Index = uint32(i)
			total += a
		}
		value := rapid.Uint64Range(sompi, total).Draw(rt, "value")
		rate := rapid.Uint64Range(1, 3).Draw(rt, "rate")

		sel, err := New().Select(set, outputs(value), rate, script())
		if err != nil {
			require.ErrorIs(rt, err, walleterr.ErrInsufficientFunds)
			return
		}
		assert.Equal(rt, sel.Total(), value+sel.Fee+sel.Change)
		assert.GreaterOrEqual(rt, sel.Fee, sel.Mass*rate)
		assert.LessOrEqual(rt, sel.Mass, kaspa.MaximumStandardTransactionMass)
		if sel.Change > 0 {
			assert.GreaterOrEqual(rt, sel.Change, uint64(DustLimit))
		}
	})
}
