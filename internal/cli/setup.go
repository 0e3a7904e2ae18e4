//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/keystore"
	"github.com/mrz1836/kaswallet/internal/output"
	"github.com/mrz1836/kaswallet/internal/storage"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

var (
	initWords int
	initForce bool

	restoreForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new wallet",
	Long: `Generate a new BIP39 mnemonic, encrypt it into the keystore, and derive
the account. Write the mnemonic down: it is the only way to recover funds.

The keystore password is read from KASWALLET_PASSWORD when set.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a wallet from its mnemonic",
	Long: `Restore the account from an existing 12 or 24 word mnemonic, encrypt it
into the keystore, and scan the node for used addresses.`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

// setupResult is printed after init and restore.
type setupResult struct {
	Mnemonic  string `json:"mnemonic,omitempty"`
	PublicKey string `json:"public_key"`
	Path      string `json:"path"`
	Address   string `json:"address"`
	Balance   uint64 `json:"balance"`
	Keystore  string `json:"keystore"`
}

// Text implements output.Texter.
func (r *setupResult) Text(w io.Writer) error {
	if r.Mnemonic != "" {
		outln(w, "Recovery phrase (write it down and keep it offline):")
		outln(w)
		outln(w, "  "+r.Mnemonic)
		outln(w)
	}
	t := output.NewTable()
	t.AddRow("Public key", r.PublicKey)
	t.AddRow("Path", r.Path)
	t.AddRow("Address", r.Address)
	t.AddRow("Balance", output.KAS(r.Balance))
	t.AddRow("Keystore", r.Keystore)
	return t.Render(w)
}

func runInit(_ *cobra.Command, _ []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if a.keystore.Exists() && !initForce {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrWalletExists, map[string]string{"path": a.keystore.Path()}),
			"Use --force to replace it, or 'kaswallet restore' to recover from a mnemonic",
		)
	}

	mnemonic, err := hdwallet.GenerateMnemonic(initWords)
	if err != nil {
		return err
	}
	res, err := seal(a, mnemonic, initForce)
	if err != nil {
		return err
	}
	res.Mnemonic = mnemonic
	return formatter.Print(res)
}

func runRestore(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if a.keystore.Exists() && !restoreForce {
		return walleterr.WithSuggestion(
			walleterr.WithDetails(walleterr.ErrWalletExists, map[string]string{"path": a.keystore.Path()}),
			"Use --force to replace it",
		)
	}

	mnemonic, err := promptMnemonicFn()
	if err != nil {
		return err
	}
	if err := checkMnemonic(mnemonic); err != nil {
		return err
	}
	res, err := seal(a, mnemonic, restoreForce)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, commandTimeout)
	defer cancel()
	if err := a.wallet.Load(ctx); err != nil {
		return err
	}
	if res.Address, err = a.wallet.Address(); err != nil {
		return err
	}
	res.Balance = a.wallet.Balance()
	return formatter.Print(res)
}

// seal encrypts mnemonic into the keystore, derives the account, and
// records its public key.
func seal(a *app, mnemonic string, overwrite bool) (*setupResult, error) {
	password, err := newWalletPassword()
	if err != nil {
		return nil, err
	}

	secret := keystore.SecretString(mnemonic)
	defer secret.Destroy()
	if err := a.keystore.Seal(secret, password, overwrite); err != nil {
		return nil, err
	}

	seed, err := hdwallet.MnemonicToSeed(mnemonic, "")
	if err != nil {
		return nil, err
	}
	defer zero(seed)
	// A new keystore invalidates any snapshot left by a previous wallet.
	if err := a.store.Set(storage.KeyBalance, "0"); err != nil {
		return nil, err
	}
	if err := a.wallet.Create(seed); err != nil {
		return nil, err
	}
	if err := a.savePublicKey(); err != nil {
		return nil, err
	}
	logger.Info("wallet keystore written to %s", a.keystore.Path())

	pub, err := a.wallet.PublicKey()
	if err != nil {
		return nil, err
	}
	address, err := a.wallet.Address()
	if err != nil {
		return nil, err
	}
	return &setupResult{
		PublicKey: pub.Key,
		Path:      pub.Path,
		Address:   address,
		Balance:   a.wallet.Balance(),
		Keystore:  a.keystore.Path(),
	}, nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	initCmd.Flags().IntVar(&initWords, "words", 24, "mnemonic length: 12 or 24")
	initCmd.Flags().BoolVar(&initForce, "force", false, "replace an existing keystore")
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "replace an existing keystore")

	rootCmd.AddCommand(initCmd, restoreCmd)
}
