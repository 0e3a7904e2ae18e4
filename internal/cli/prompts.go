//nolint:gochecknoglobals // prompt functions are swapped in tests
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mrz1836/kaswallet/internal/config"
	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/keystore"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// minPasswordLength applies to passwords chosen interactively.
const minPasswordLength = 8

var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptConfirmFn     = promptConfirm
	promptMnemonicFn    = promptMnemonic
)

// promptPassword reads a password with hidden input.
func promptPassword(prompt string) (string, error) {
	out(os.Stderr, "%s", prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() fits in int
	outln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}

// promptNewPassword reads a new password twice.
func promptNewPassword() (string, error) {
	password, err := promptPassword("Enter encryption password: ")
	if err != nil {
		return "", err
	}
	if len(password) < minPasswordLength {
		return "", walleterr.WithSuggestion(walleterr.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", walleterr.WithSuggestion(walleterr.ErrInvalidInput, "passwords do not match")
	}
	return password, nil
}

// promptConfirm asks a yes/no question, defaulting to no.
func promptConfirm(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// promptMnemonic reads a mnemonic from one line of stdin.
func promptMnemonic() (string, error) {
	out(os.Stderr, "Enter your mnemonic (all words on one line): ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading mnemonic: %w", err)
	}
	return hdwallet.NormalizeMnemonic(line), nil
}

// walletPassword returns the keystore password from the environment or
// from the terminal.
func walletPassword() (string, error) {
	if v := os.Getenv(config.EnvPassword); v != "" {
		return v, nil
	}
	return promptPasswordFn("Enter wallet password: ")
}

// newWalletPassword returns the password for a new keystore.
func newWalletPassword() (string, error) {
	if v := os.Getenv(config.EnvPassword); v != "" {
		return v, nil
	}
	return promptNewPasswordFn()
}

// checkMnemonic validates a mnemonic and suggests corrections for words
// that are not in the BIP39 list.
func checkMnemonic(mnemonic string) error {
	if typos := hdwallet.DetectTypos(mnemonic); len(typos) > 0 {
		hints := make([]string, 0, len(typos))
		for _, t := range typos {
			hint := fmt.Sprintf("word %d %q", t.Index+1, t.Word)
			if t.Suggestion != "" {
				hint += fmt.Sprintf(" (did you mean %q?)", t.Suggestion)
			}
			hints = append(hints, hint)
		}
		return walleterr.WithSuggestion(
			walleterr.Wrap(walleterr.ErrInvalidMnemonic, "unknown words"),
			"Check "+strings.Join(hints, ", "),
		)
	}
	return hdwallet.ValidateMnemonic(mnemonic)
}

// unlockSeed decrypts the keystore and derives the BIP39 seed. The caller
// must zero the returned bytes.
func unlockSeed(ks *keystore.Keystore) ([]byte, error) {
	password, err := walletPassword()
	if err != nil {
		return nil, err
	}
	secret, err := ks.Open(password)
	if err != nil {
		return nil, err
	}
	defer secret.Destroy()
	return hdwallet.MnemonicToSeed(secret.String(), "")
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
