// Package kaspa implements the Kaspa primitives the wallet core orchestrates:
// network parameters, address encoding, output scripts, transaction mass,
// signature hashing, and Schnorr signing.
package kaspa

import (
	"fmt"
	"strings"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// Network identifies a Kaspa network.
type Network string

// Supported networks.
const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// Params holds the per-network constants used for key serialization,
// address encoding, and explorer links.
type Params struct {
	Name           Network
	AddressPrefix  string
	HDPrivateKeyID [4]byte
	HDPublicKeyID  [4]byte
	ExplorerURL    string
}

// MainnetParams are the parameters for Kaspa mainnet (kprv/kpub).
var MainnetParams = &Params{
	Name:           Mainnet,
	AddressPrefix:  "kaspa",
	HDPrivateKeyID: [4]byte{0x03, 0x8f, 0x2e, 0xf4},
	HDPublicKeyID:  [4]byte{0x03, 0x8f, 0x33, 0x2e},
	ExplorerURL:    "https://explorer.kaspa.org",
}

// TestnetParams are the parameters for Kaspa testnet (ktrv/ktub).
var TestnetParams = &Params{
	Name:           Testnet,
	AddressPrefix:  "kaspatest",
	HDPrivateKeyID: [4]byte{0x03, 0x90, 0x9e, 0x07},
	HDPublicKeyID:  [4]byte{0x03, 0x90, 0xa2, 0x41},
	ExplorerURL:    "https://explorer-tn10.kaspa.org",
}

// ParamsFor returns the parameters for a network name.
func ParamsFor(name string) (*Params, error) {
	switch Network(strings.ToLower(strings.TrimSpace(name))) {
	case Mainnet, "":
		return MainnetParams, nil
	case Testnet:
		return TestnetParams, nil
	default:
		return nil, walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{
			"network": name,
		})
	}
}

// TransactionURL returns the explorer link for a transaction id.
func (p *Params) TransactionURL(txID string) string {
	return fmt.Sprintf("%s/txs/%s", p.ExplorerURL, txID)
}
