package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/kaspa"
)

func recv(i uint32) hdwallet.DerivationIndex {
	return hdwallet.DerivationIndex{Branch: hdwallet.Receive, Index: i}
}

func change(i uint32) hdwallet.DerivationIndex {
	return hdwallet.DerivationIndex{Branch: hdwallet.Change, Index: i}
}

func addr(d hdwallet.DerivationIndex) string {
	return fmt.Sprintf("kaspa:%s-%d", d.Branch, d.Index)
}

func txID(b byte) kaspa.TransactionID {
	var id kaspa.TransactionID
	id[0] = b
	return id
}

func utxo(d hdwallet.DerivationIndex, tx byte, index uint32, amount uint64) UTXO {
	return UTXO{
		Address:    addr(d),
		Outpoint:   kaspa.Outpoint{TransactionID: txID(tx), Index: index},
		Entry:      kaspa.UtxoEntry{Amount: amount, BlockDAAScore: 100},
		Derivation: d,
	}
}

// bookWithUsed derives receive 0..n and change 0..1, marking receive 0..n-1 used.
func bookWithUsed(n uint32) *AddressBook {
	b := NewAddressBook()
	for i := uint32(0); i <= n; i++ {
		b.Record(addr(recv(i)), recv(i))
	}
	for i := uint32(0); i < n; i++ {
		b.MarkUsed(addr(recv(i)), recv(i))
	}
	b.Record(addr(change(0)), change(0))
	return b
}

func TestAddressBook(t *testing.T) {
	t.Parallel()

	b := NewAddressBook()
	assert.Equal(t, NoneUsed, b.LastUsed(hdwallet.Receive))
	assert.Equal(t, NoneUsed, b.LastUsed(hdwallet.Change))
	assert.Equal(t, recv(0), b.Next(hdwallet.Receive))

	b.Record(addr(recv(0)), recv(0))
	b.Record(addr(recv(1)), recv(1))
	b.Record(addr(recv(2)), recv(2))
	b.MarkUsed(addr(recv(2)), recv(2))
	b.MarkUsed(addr(recv(0)), recv(0))
	b.MarkUsed(addr(recv(2)), recv(2))

	assert.Equal(t, []string{addr(recv(2)), addr(recv(0))}, b.Used())
	assert.Equal(t, int64(2), b.LastUsed(hdwallet.Receive))
	assert.Equal(t, recv(3), b.Next(hdwallet.Receive))
	assert.True(t, b.IsUsed(addr(recv(0))))
	assert.False(t, b.IsUsed(addr(recv(1))))
	assert.True(t, b.Known(addr(recv(1))))
	assert.Equal(t, 3, b.Size())

	d, ok := b.Derivation(addr(recv(1)))
	require.True(t, ok)
	assert.Equal(t, recv(1), d)

	b.Record(addr(recv(1)), change(9))
	d, _ = b.Derivation(addr(recv(1)))
	assert.Equal(t, recv(1), d, "records are never overwritten")
}

func TestAddressBook_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	b := bookWithUsed(2)
	c := b.Clone()
	c.MarkUsed(addr(change(0)), change(0))

	assert.False(t, b.IsUsed(addr(change(0))))
	assert.Equal(t, NoneUsed, b.LastUsed(hdwallet.Change))
	assert.Equal(t, int64(0), c.LastUsed(hdwallet.Change))
	assert.Len(t, b.Used(), 2)
	assert.Len(t, c.Used(), 3)
}

func TestReplaceAll(t *testing.T) {
	t.Parallel()

	book := bookWithUsed(2)
	l, err := ReplaceAll(book, []UTXO{utxo(recv(0), 1, 0, 100), utxo(recv(1), 2, 0, 250)})
	require.NoError(t, err)
	assert.Equal(t, uint64(350), l.Balance())
	assert.Equal(t, 2, l.Len())
	utxos := l.UTXOs()
	require.Len(t, utxos, 2)
	assert.Equal(t, uint64(100), utxos[0].Entry.Amount)
	assert.Equal(t, uint64(250), utxos[1].Entry.Amount)

	_, err = ReplaceAll(book, []UTXO{utxo(recv(7), 1, 0, 1)})
	require.ErrorIs(t, err, ErrUnknownAddress)

	empty, err := ReplaceAll(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Balance())
	assert.Zero(t, Empty().Balance())
}

func TestApply_ExternalSendWithChange(t *testing.T) {
	t.Parallel()

	book := bookWithUsed(2)
	l, err := ReplaceAll(book, []UTXO{
		utxo(recv(0), 1, 0, 1000),
		utxo(recv(1), 2, 0, 500),
	})
	require.NoError(t, err)

	next, err := l.Apply(Diff{
		TransactionID: txID(9),
		Consumed:      []kaspa.Outpoint{{TransactionID: txID(1), Index: 0}},
		Outputs: []ProducedOutput{
			{Address: "kaspa:external", Value: 600},
			{Address: addr(change(0)), Value: 380},
		},
		Candidates: []Candidate{
			{Address: addr(recv(2)), Derivation: recv(2)},
			{Address: addr(change(0)), Derivation: change(0)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(880), next.Balance())
	require.Equal(t, 2, next.Len())
	got := next.UTXOs()[1]
	assert.Equal(t, addr(change(0)), got.Address)
	assert.Equal(t, kaspa.Outpoint{TransactionID: txID(9), Index: 1}, got.Outpoint)
	assert.Equal(t, change(0), got.Derivation)
	assert.Zero(t, got.Entry.BlockDAAScore)

	assert.Equal(t, int64(0), next.Book().LastUsed(hdwallet.Change))
	assert.Equal(t, int64(1), next.Book().LastUsed(hdwallet.Receive))

	// The original snapshot is untouched.
	assert.Equal(t, uint64(1500), l.Balance())
	assert.Equal(t, NoneUsed, l.Book().LastUsed(hdwallet.Change))
}

func TestApply_SendToOwnNextAddress(t *testing.T) {
	t.Parallel()

	book := bookWithUsed(10)
	l, err := ReplaceAll(book, []UTXO{utxo(recv(3), 1, 0, 2000)})
	require.NoError(t, err)

	next, err := l.Apply(Diff{
		TransactionID: txID(5),
		Consumed:      []kaspa.Outpoint{{TransactionID: txID(1), Index: 0}},
		Outputs: []ProducedOutput{
			{Address: addr(recv(10)), Value: 500},
			{Address: addr(change(0)), Value: 1400},
		},
		Candidates: []Candidate{
			{Address: addr(recv(10)), Derivation: recv(10)},
			{Address: addr(change(0)), Derivation: change(0)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1900), next.Balance(), "only the fee leaves the wallet")
	assert.Equal(t, recv(11), next.Book().Next(hdwallet.Receive))
	assert.Equal(t, change(1), next.Book().Next(hdwallet.Change))
}

func TestApply_OutputToOlderUsedAddress(t *testing.T) {
	t.Parallel()

	l, err := ReplaceAll(bookWithUsed(3), []UTXO{utxo(recv(2), 1, 0, 900)})
	require.NoError(t, err)

	next, err := l.Apply(Diff{
		TransactionID: txID(4),
		Consumed:      []kaspa.Outpoint{{TransactionID: txID(1), Index: 0}},
		Outputs:       []ProducedOutput{{Address: addr(recv(0)), Value: 800}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(800), next.Balance())
	assert.Equal(t, int64(2), next.Book().LastUsed(hdwallet.Receive))
}

func TestApply_UnknownInput(t *testing.T) {
	t.Parallel()

	l, err := ReplaceAll(bookWithUsed(1), []UTXO{utxo(recv(0), 1, 0, 10)})
	require.NoError(t, err)

	_, err = l.Apply(Diff{Consumed: []kaspa.Outpoint{{TransactionID: txID(2), Index: 0}}})
	require.ErrorIs(t, err, ErrUnknownInput)
	assert.Equal(t, uint64(10), l.Balance())
}

func TestApply_BalanceProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "used")
		book := bookWithUsed(uint32(n))

		var utxos []UTXO
		for i := 0; i < n; i++ {
			amount := rapid.Uint64Range(1, 1_000_000_000_000).Draw(rt, "amount")
			utxos = append(utxos, utxo(recv(uint32(i)), byte(i+1), 0, amount))
		}
		l, err := ReplaceAll(book, utxos)
		require.NoError(rt, err)

		sends := rapid.IntRange(1, 6).Draw(rt, "sends")
		for s := 0; s < sends && l.Len() > 0; s++ {
			live := l.UTXOs()
			take := rapid.IntRange(1, len(live)).Draw(rt, "take")
			var consumed []kaspa.Outpoint
			var in uint64
			for _, u := range live[:take] {
				consumed = append(consumed, u.Outpoint)
				in += u.Entry.Amount
			}

			fee := in / 100
			external := rapid.Uint64Range(0, in-fee).Draw(rt, "external")
			back := in - fee - external

			recvNext := l.Book().Next(hdwallet.Receive)
			changeNext := l.Book().Next(hdwallet.Change)
			toSelf := rapid.Bool().Draw(rt, "toSelf")
			dest := "kaspa:external"
			if toSelf {
				dest = addr(recvNext)
			}

			outputs := []ProducedOutput{{Address: dest, Value: external}}
			if back > 0 {
				outputs = append(outputs, ProducedOutput{Address: addr(changeNext), Value: back})
			}

			before := l.Balance()
			next, err := l.Apply(Diff{
				TransactionID: txID(byte(200 + s)),
				Consumed:      consumed,
				Outputs:       outputs,
				Candidates: []Candidate{
					{Address: addr(recvNext), Derivation: recvNext},
					{Address: addr(changeNext), Derivation: changeNext},
				},
			})
			require.NoError(rt, err)

			var sum uint64
			for _, u := range next.UTXOs() {
				sum += u.Entry.Amount
				require.True(rt, next.Book().Known(u.Address))
			}
			require.Equal(rt, sum, next.Balance())

			want := before - in + back
			if toSelf {
				want += external
			}
			require.Equal(rt, want, next.Balance())
			require.GreaterOrEqual(rt, next.Book().LastUsed(hdwallet.Receive), l.Book().LastUsed(hdwallet.Receive))
			require.GreaterOrEqual(rt, next.Book().LastUsed(hdwallet.Change), l.Book().LastUsed(hdwallet.Change))
			require.Equal(rt, before, l.Balance())
			l = next
		}
	})
}
