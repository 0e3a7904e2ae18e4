// Package hdwallet derives Kaspa account keys and addresses from BIP39 seeds
// and serialized extended keys (kpub/kprv, ktub/ktrv).
package hdwallet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/mrz1836/kaswallet/internal/kaspa"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// DefaultPath is the BIP44 account path for Kaspa.
const DefaultPath = "m/44'/111111'/0'"

const coinType = 111111

var (
	// ErrInvalidPath indicates a malformed derivation path.
	ErrInvalidPath = errors.New("invalid derivation path")

	// ErrPrivateKeyProvided is returned when a kprv is given where a kpub is expected.
	ErrPrivateKeyProvided = errors.New("expected extended public key but got private key")

	// ErrWrongNetwork indicates the extended key version does not match the network.
	ErrWrongNetwork = errors.New("extended key is for a different network")
)

// Branch is the BIP44 change level.
type Branch uint32

// Branches.
const (
	Receive Branch = 0
	Change  Branch = 1
)

// Branches lists both branches in scan order.
//
//nolint:gochecknoglobals // Fixed scan order
var Branches = [2]Branch{Receive, Change}

func (b Branch) String() string {
	if b == Change {
		return "change"
	}
	return "receive"
}

// DerivationIndex identifies one address below the account key.
type DerivationIndex struct {
	Branch Branch `json:"branch"`
	Index  uint32 `json:"index"`
}

func (d DerivationIndex) String() string {
	return fmt.Sprintf("%d/%d", d.Branch, d.Index)
}

// ParsePath parses a path such as m/44'/111111'/0' into child indexes.
func ParsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	indexes := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		part = strings.TrimRight(part, "'h")
		n, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		idx := uint32(n)
		if hardened {
			idx += hdkeychain.HardenedKeyStart
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// chainParams adapts Kaspa HD version bytes to hdkeychain.
func chainParams(p *kaspa.Params) *chaincfg.Params {
	return &chaincfg.Params{
		Name:           string(p.Name),
		HDPrivateKeyID: p.HDPrivateKeyID,
		HDPublicKeyID:  p.HDPublicKeyID,
		HDCoinType:     coinType,
	}
}

// deriveAccountKey derives the private account key at path from a seed.
func deriveAccountKey(seed []byte, params *kaspa.Params, path string) (*hdkeychain.ExtendedKey, error) {
	indexes, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	key, err := hdkeychain.NewMaster(seed, chainParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	for _, idx := range indexes {
		child, derr := key.Derive(idx)
		key.Zero()
		if derr != nil {
			return nil, fmt.Errorf("failed to derive child %d: %w", idx, derr)
		}
		key = child
	}
	return key, nil
}

// neuter returns the public form of a private extended key under the
// network's public version bytes.
func neuter(key *hdkeychain.ExtendedKey, params *kaspa.Params) (*hdkeychain.ExtendedKey, error) {
	if !key.IsPrivate() {
		return key, nil
	}
	pub, err := key.ECPubKey()
	if err != nil {
		return nil, fmt.Errorf("failed to compute public key: %w", err)
	}
	parentFP := make([]byte, 4)
	binary.BigEndian.PutUint32(parentFP, key.ParentFingerprint())
	return hdkeychain.NewExtendedKey(
		params.HDPublicKeyID[:],
		pub.SerializeCompressed(),
		key.ChainCode(),
		parentFP,
		key.Depth(),
		key.ChildIndex(),
		false,
	), nil
}

// Account is the public half of a single BIP44 account. It derives
// addresses but can never sign.
type Account struct {
	params   *kaspa.Params
	path     string
	key      *hdkeychain.ExtendedKey
	branches [2]*hdkeychain.ExtendedKey
}

func newAccount(key *hdkeychain.ExtendedKey, params *kaspa.Params, path string) (*Account, error) {
	a := &Account{params: params, path: path, key: key}
	for _, b := range Branches {
		child, err := key.Derive(uint32(b))
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s branch: %w", b, err)
		}
		a.branches[b] = child
	}
	return a, nil
}

// NewAccountFromSeed derives the account at path and discards private data.
func NewAccountFromSeed(seed []byte, params *kaspa.Params, path string) (*Account, error) {
	priv, err := deriveAccountKey(seed, params, path)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	pub, err := neuter(priv, params)
	if err != nil {
		return nil, err
	}
	return newAccount(pub, params, path)
}

// ParseAccount parses a serialized extended public key for the account at path.
func ParseAccount(extendedKey string, params *kaspa.Params, path string) (*Account, error) {
	key, err := hdkeychain.NewKeyFromString(strings.TrimSpace(extendedKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", walleterr.ErrInvalidPublicKey, err)
	}
	if key.IsPrivate() {
		key.Zero()
		return nil, ErrPrivateKeyProvided
	}
	if string(key.Version()) != string(params.HDPublicKeyID[:]) {
		return nil, ErrWrongNetwork
	}
	return newAccount(key, params, path)
}

// Path returns the account derivation path.
func (a *Account) Path() string {
	return a.path
}

// Params returns the network parameters.
func (a *Account) Params() *kaspa.Params {
	return a.params
}

// PublicExtendedKey returns the serialized extended public key.
func (a *Account) PublicExtendedKey() string {
	return a.key.String()
}

// PublicKey derives the public key at d.
func (a *Account) PublicKey(d DerivationIndex) (*secp256k1.PublicKey, error) {
	if d.Branch != Receive && d.Branch != Change {
		return nil, fmt.Errorf("%w: branch %d", ErrInvalidPath, d.Branch)
	}
	child, err := a.branches[d.Branch].Derive(d.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to derive %s: %w", d, err)
	}
	return child.ECPubKey()
}

// Address derives the Schnorr P2PK address at d.
func (a *Account) Address(d DerivationIndex) (string, error) {
	pub, err := a.PublicKey(d)
	if err != nil {
		return "", err
	}
	addr, err := kaspa.NewPubKeyAddress(a.params.AddressPrefix, kaspa.XOnlyPublicKey(pub))
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

// Signer holds the private account key for the duration of one signing
// operation. Callers must call Zero when done.
type Signer struct {
	params *kaspa.Params
	key    *hdkeychain.ExtendedKey
}

// NewSigner derives the private account key at path from a seed.
func NewSigner(seed []byte, params *kaspa.Params, path string) (*Signer, error) {
	key, err := deriveAccountKey(seed, params, path)
	if err != nil {
		return nil, err
	}
	return &Signer{params: params, key: key}, nil
}

// PrivateKey derives the private key at d. The caller owns the result and
// should zero it after use.
func (s *Signer) PrivateKey(d DerivationIndex) (*secp256k1.PrivateKey, error) {
	branch, err := s.key.Derive(uint32(d.Branch))
	if err != nil {
		return nil, fmt.Errorf("failed to derive %s branch: %w", d.Branch, err)
	}
	defer branch.Zero()

	child, err := branch.Derive(d.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to derive %s: %w", d, err)
	}
	defer child.Zero()

	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}
	return priv, nil
}

// Account returns the public account matching this signer.
func (s *Signer) Account(path string) (*Account, error) {
	pub, err := neuter(s.key, s.params)
	if err != nil {
		return nil, err
	}
	return newAccount(pub, s.params, path)
}

// Zero clears the private key material.
func (s *Signer) Zero() {
	if s.key != nil {
		s.key.Zero()
	}
}
