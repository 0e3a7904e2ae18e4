package hdwallet

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/kaswallet/internal/kaspa"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

const (
	testMnemonic = "either dismiss upset disease clump hazard paddle twist fetch tissue hello buyer"
	testSeedHex  = "3e818cec5efc7505369fae3f162af61130b673fa9b40e5955d5cde22a85afa03748d074356a281a5fc1dbd0b721357c56095a54de8d4bc6ecaa288f300776ae4"
	testKpub     = "kpub2JfcaYbvx1xhtvb7mprkcoGRcKi5o3KJ6LXcvqEix1jnvCErRSAK81ZMW6ceRyuQUXwtkWCaGTySAFhDQqKFitNtxpVpmFC6oaWkNHPkgcq"
	testKtub     = "ktub23MYGHTbuzgd4yoybb3dwZ5NrybJhJ4KyapMSzZ37otmcVGG6H5xhERPHXieWwGtKKaMiH9AHZ8MsLBmwAouBvZFyDwYTYVWPKhJyB6ay25"
)

func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := hex.DecodeString(testSeedHex)
	require.NoError(t, err)
	return seed
}

// TestNewAccountFromSeed tests the serialized account key on both networks.
func TestNewAccountFromSeed(t *testing.T) {
	t.Parallel()

	mainnet, err := NewAccountFromSeed(testSeed(t), kaspa.MainnetParams, DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, testKpub, mainnet.PublicExtendedKey())
	assert.Equal(t, DefaultPath, mainnet.Path())

	testnet, err := NewAccountFromSeed(testSeed(t), kaspa.TestnetParams, DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, testKtub, testnet.PublicExtendedKey())
}

// TestAccountAddress tests address derivation on both branches.
func TestAccountAddress(t *testing.T) {
	t.Parallel()

	account, err := ParseAccount(testKpub, kaspa.MainnetParams, DefaultPath)
	require.NoError(t, err)

	tests := []struct {
		index DerivationIndex
		want  string
	}{
		{DerivationIndex{Receive, 0}, "kaspa:qpd0mgtcj7r25phumvmuf2637x6g2ppa0w928yrxfe3rxpatefpa2eqawyx4h"},
		{DerivationIndex{Receive, 1}, "kaspa:qp3qauzpsk63mljx2rqagj38m3v5l6zjazr0tlnhggp6amueayvqswpcnkahz"},
		{DerivationIndex{Receive, 10}, "kaspa:qzn02tn7alknfjajk4ddvh3ntkwzt9hpq3yd5hy0lt6jdxyxhnwy5e5trm5uy"},
		{DerivationIndex{Change, 0}, "kaspa:qzjrptasf2l7ul7t2x2qnhqg8u6jymp70dlquyvfxehp6kzyg5s3ze7cmul3k"},
		{DerivationIndex{Change, 1}, "kaspa:qpttgwhp4ekzjp6eej48s9a2dd4cgq36gtna37jdfcd236t8am36jxhtq4pt6"},
	}

	for _, tt := range tests {
		t.Run(tt.index.String(), func(t *testing.T) {
			t.Parallel()
			got, aerr := account.Address(tt.index)
			require.NoError(t, aerr)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = account.Address(DerivationIndex{Branch: 7})
	require.ErrorIs(t, err, ErrInvalidPath)
}

// TestParseAccount_Errors tests rejection of unusable extended keys.
func TestParseAccount_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseAccount("not-a-key", kaspa.MainnetParams, DefaultPath)
	require.ErrorIs(t, err, walleterr.ErrInvalidPublicKey)

	_, err = ParseAccount(testKtub, kaspa.MainnetParams, DefaultPath)
	require.ErrorIs(t, err, ErrWrongNetwork)

	signer, err := NewSigner(testSeed(t), kaspa.MainnetParams, DefaultPath)
	require.NoError(t, err)
	defer signer.Zero()
	_, err = ParseAccount(signer.key.String(), kaspa.MainnetParams, DefaultPath)
	require.ErrorIs(t, err, ErrPrivateKeyProvided)
}

// TestSignerPrivateKey tests that signer keys match account addresses.
func TestSignerPrivateKey(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testSeed(t), kaspa.MainnetParams, DefaultPath)
	require.NoError(t, err)
	defer signer.Zero()

	key, err := signer.PrivateKey(DerivationIndex{Receive, 0})
	require.NoError(t, err)
	assert.Equal(t, "4af659ff32c37794cd968864f5e2c3f501edee0102c161dd83ad7c45f0056f81", hex.EncodeToString(key.Serialize()))

	key, err = signer.PrivateKey(DerivationIndex{Change, 1})
	require.NoError(t, err)
	assert.Equal(t, "5ccdd1af42be26202761869814e3ec3f5c66c4fcc96f1601bae9f9eb4b90a9d6", hex.EncodeToString(key.Serialize()))

	account, err := signer.Account(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, testKpub, account.PublicExtendedKey())
}

// TestParsePath tests derivation path parsing.
func TestParsePath(t *testing.T) {
	t.Parallel()

	got, err := ParsePath(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x8000002c, 0x8001b207, 0x80000000}, got)

	got, err = ParsePath("m/0/1h")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0x80000001}, got)

	for _, bad := range []string{"", "44'/0'", "m/x", "m/4294967296"} {
		_, err = ParsePath(bad)
		require.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}
