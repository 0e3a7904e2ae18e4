// Package keystore keeps the wallet mnemonic on disk encrypted with an
// age scrypt recipient.
package keystore

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"

	"github.com/mrz1836/kaswallet/internal/storage"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// ErrEmptyPassword is returned when sealing with an empty password.
var ErrEmptyPassword = walleterr.New("EMPTY_PASSWORD", "password must not be empty")

// Keystore is an encrypted mnemonic file.
type Keystore struct {
	path string
}

// New returns a keystore backed by the file at path.
func New(path string) *Keystore {
	return &Keystore{path: path}
}

// Path returns the file location.
func (k *Keystore) Path() string {
	return k.path
}

// Exists reports whether the keystore file is present.
func (k *Keystore) Exists() bool {
	_, err := os.Stat(k.path)
	return err == nil
}

// Seal encrypts the mnemonic with password and writes it. An existing
// file is only replaced when overwrite is set.
func (k *Keystore) Seal(mnemonic *Secret, password string, overwrite bool) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if !overwrite && k.Exists() {
		return walleterr.WithDetails(walleterr.ErrWalletExists, map[string]string{"path": k.path})
	}

	ciphertext, err := Encrypt(mnemonic.Bytes(), password)
	if err != nil {
		return fmt.Errorf("encrypting keystore: %w", err)
	}
	return storage.WriteAtomic(k.path, ciphertext, 0o600)
}

// Open decrypts the keystore. The caller owns the returned secret and
// should Destroy it when done.
func (k *Keystore) Open(password string) (*Secret, error) {
	// #nosec G304 -- keystore path comes from configuration
	ciphertext, err := os.ReadFile(k.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, walleterr.WithDetails(walleterr.ErrWalletNotFound, map[string]string{"path": k.path})
		}
		return nil, err
	}

	plaintext, err := Decrypt(ciphertext, password)
	if err != nil {
		return nil, walleterr.WithDetails(err, map[string]string{"path": k.path})
	}
	defer wipe(plaintext)

	return NewSecret(plaintext), nil
}

// Encrypt encrypts plaintext for a password-based recipient.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decrypt reverses Encrypt.
func Decrypt(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, err
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", walleterr.ErrDecryptionFailed, err)
	}
	return io.ReadAll(r)
}
