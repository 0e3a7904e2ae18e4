//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/kaswallet/internal/output"
	"github.com/mrz1836/kaswallet/internal/wallet"
)

var exportYes bool

var exportKeysCmd = &cobra.Command{
	Use:   "export-keys",
	Short: "Export the private keys of funded addresses",
	Long: `Print the private key of every address that currently holds funds, once
per address. Anyone with these keys can spend the funds.`,
	Args: cobra.NoArgs,
	RunE: runExportKeys,
}

type exportResult struct {
	Keys []wallet.PrivateKey `json:"keys"`
}

// Text implements output.Texter.
func (r *exportResult) Text(w io.Writer) error {
	if len(r.Keys) == 0 {
		outln(w, "No funded addresses")
		return nil
	}
	t := output.NewTable("ADDRESS", "PRIVATE KEY")
	for _, k := range r.Keys {
		t.AddRow(k.Address, k.PrivateKey)
	}
	return t.Render(w)
}

func runExportKeys(cmd *cobra.Command, _ []string) error {
	return withWallet(cmd, true, func(_ context.Context, a *app) error {
		if !exportYes && !promptConfirmFn("Print private keys to the terminal?") {
			return ErrCanceled
		}
		seed, err := unlockSeed(a.keystore)
		if err != nil {
			return err
		}
		defer zero(seed)

		keys, err := a.wallet.ExportPrivateKeys(seed)
		if err != nil {
			return err
		}
		return formatter.Print(&exportResult{Keys: keys})
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	exportKeysCmd.Flags().BoolVarP(&exportYes, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(exportKeysCmd)
}
