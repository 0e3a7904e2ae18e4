package kaspa

import (
	"errors"
	"fmt"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// AddressVersion is the leading payload byte that selects the address kind.
type AddressVersion byte

// Address versions.
const (
	VersionPubKey      AddressVersion = 0
	VersionPubKeyECDSA AddressVersion = 1
	VersionScriptHash  AddressVersion = 8
)

// Payload sizes per version.
const (
	PubKeySize      = 32
	PubKeyECDSASize = 33
	ScriptHashSize  = 32
)

// Address is a decoded Kaspa address.
type Address struct {
	Prefix  string
	Version AddressVersion
	Payload []byte
}

func payloadSize(v AddressVersion) (int, bool) {
	switch v {
	case VersionPubKey:
		return PubKeySize, true
	case VersionPubKeyECDSA:
		return PubKeyECDSASize, true
	case VersionScriptHash:
		return ScriptHashSize, true
	default:
		return 0, false
	}
}

// NewAddress builds an address and checks the payload size for its version.
func NewAddress(prefix string, version AddressVersion, payload []byte) (*Address, error) {
	size, ok := payloadSize(version)
	if !ok {
		return nil, walleterr.ErrUnsupportedVersion
	}
	if len(payload) != size {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d", errInvalidDataLength, len(payload), size)
	}
	p := make([]byte, size)
	copy(p, payload)
	return &Address{Prefix: prefix, Version: version, Payload: p}, nil
}

// NewPubKeyAddress builds a Schnorr pay-to-pubkey address from an x-only key.
func NewPubKeyAddress(prefix string, xOnlyPubKey []byte) (*Address, error) {
	return NewAddress(prefix, VersionPubKey, xOnlyPubKey)
}

// DecodeAddress parses an address. When expectedPrefix is non-empty the
// address must carry that prefix.
func DecodeAddress(encoded, expectedPrefix string) (*Address, error) {
	prefix, data, err := decodeBech32(encoded)
	if err != nil {
		if errors.Is(err, errChecksumMismatch) {
			return nil, walleterr.ErrInvalidChecksum
		}
		return nil, err
	}
	if expectedPrefix != "" && prefix != expectedPrefix {
		return nil, fmt.Errorf("%w: %s", errUnexpectedPrefix, prefix)
	}
	if len(data) == 0 {
		return nil, errPayloadTooShort
	}
	return NewAddress(prefix, AddressVersion(data[0]), data[1:])
}

// String encodes the address.
func (a *Address) String() string {
	data := make([]byte, 0, len(a.Payload)+1)
	data = append(data, byte(a.Version))
	data = append(data, a.Payload...)
	return encodeBech32(a.Prefix, data)
}
