package kaspa

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// KeyLookup returns the private key that unlocks input idx.
type KeyLookup func(idx int) (*secp256k1.PrivateKey, error)

// XOnlyPublicKey returns the 32 byte BIP340 encoding of a public key.
func XOnlyPublicKey(pub *secp256k1.PublicKey) []byte {
	return schnorr.SerializePubKey(pub)
}

// SignInput signs input idx with key and installs the signature script.
func SignInput(tx *Transaction, idx int, key *secp256k1.PrivateKey) error {
	digest, err := tx.SignatureHash(idx)
	if err != nil {
		return err
	}
	sig, err := schnorr.Sign(key, digest[:])
	if err != nil {
		return fmt.Errorf("sign input %d: %w", idx, err)
	}

	script := make([]byte, 0, schnorrSignatureScriptSize)
	script = append(script, opData65)
	script = append(script, sig.Serialize()...)
	script = append(script, SigHashAll)
	tx.Inputs[idx].SignatureScript = script
	return nil
}

// SignTransaction signs every input using keys resolved by lookup.
func SignTransaction(tx *Transaction, lookup KeyLookup) error {
	for i := range tx.Inputs {
		key, err := lookup(i)
		if err != nil {
			return fmt.Errorf("key for input %d: %w", i, err)
		}
		err = SignInput(tx, i, key)
		key.Zero()
		if err != nil {
			return err
		}
	}
	return nil
}

// VerifyInput checks the Schnorr signature on input idx against the x-only
// key embedded in the spent P2PK script.
func VerifyInput(tx *Transaction, idx int) (bool, error) {
	digest, err := tx.SignatureHash(idx)
	if err != nil {
		return false, err
	}
	in := tx.Inputs[idx]
	if len(in.SignatureScript) != schnorrSignatureScriptSize {
		return false, nil
	}
	spk := in.UtxoEntry.ScriptPublicKey.Script
	if len(spk) != pubKeyScriptSize {
		return false, errNonStandardScript
	}
	pub, err := schnorr.ParsePubKey(spk[1 : 1+PubKeySize])
	if err != nil {
		return false, fmt.Errorf("parse public key: %w", err)
	}
	sig, err := schnorr.ParseSignature(in.SignatureScript[1 : 1+schnorr.SignatureSize])
	if err != nil {
		return false, fmt.Errorf("parse signature: %w", err)
	}
	return sig.Verify(digest[:], pub), nil
}
