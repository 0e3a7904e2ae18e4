package kaspa

import (
	"bytes"
	"encoding/hex"
	"errors"
)

// Opcodes used by standard output scripts.
const (
	opData32         = 0x20
	opData33         = 0x21
	opData65         = 0x41
	opEqual          = 0x87
	opBlake2b        = 0xaa
	opCheckSigECDSA  = 0xab
	opCheckSig       = 0xac
	scriptVersion    = 0
	pubKeyScriptSize = 1 + PubKeySize + 1
)

// StandardOutputScriptSize is the script length of a Schnorr P2PK output.
const StandardOutputScriptSize = pubKeyScriptSize

var errNonStandardScript = errors.New("non-standard script")

// ScriptPublicKey is a versioned locking script.
type ScriptPublicKey struct {
	Version uint16
	Script  []byte
}

// Hex returns the script bytes as hex.
func (s ScriptPublicKey) Hex() string {
	return hex.EncodeToString(s.Script)
}

// Equal reports whether two scripts are identical.
func (s ScriptPublicKey) Equal(o ScriptPublicKey) bool {
	return s.Version == o.Version && bytes.Equal(s.Script, o.Script)
}

// PayToAddress returns the locking script for an address.
func PayToAddress(a *Address) (ScriptPublicKey, error) {
	var script []byte
	switch a.Version {
	case VersionPubKey:
		script = make([]byte, 0, pubKeyScriptSize)
		script = append(script, opData32)
		script = append(script, a.Payload...)
		script = append(script, opCheckSig)
	case VersionPubKeyECDSA:
		script = make([]byte, 0, PubKeyECDSASize+2)
		script = append(script, opData33)
		script = append(script, a.Payload...)
		script = append(script, opCheckSigECDSA)
	case VersionScriptHash:
		script = make([]byte, 0, ScriptHashSize+3)
		script = append(script, opBlake2b, opData32)
		script = append(script, a.Payload...)
		script = append(script, opEqual)
	default:
		return ScriptPublicKey{}, errNonStandardScript
	}
	return ScriptPublicKey{Version: scriptVersion, Script: script}, nil
}

// AddressFromScript recovers the address a standard locking script pays to.
func AddressFromScript(spk ScriptPublicKey, prefix string) (*Address, error) {
	s := spk.Script
	switch {
	case len(s) == pubKeyScriptSize && s[0] == opData32 && s[len(s)-1] == opCheckSig:
		return NewAddress(prefix, VersionPubKey, s[1:1+PubKeySize])
	case len(s) == PubKeyECDSASize+2 && s[0] == opData33 && s[len(s)-1] == opCheckSigECDSA:
		return NewAddress(prefix, VersionPubKeyECDSA, s[1:1+PubKeyECDSASize])
	case len(s) == ScriptHashSize+3 && s[0] == opBlake2b && s[1] == opData32 && s[len(s)-1] == opEqual:
		return NewAddress(prefix, VersionScriptHash, s[2:2+ScriptHashSize])
	default:
		return nil, errNonStandardScript
	}
}
