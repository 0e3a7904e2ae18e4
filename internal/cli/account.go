//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/output"
)

var (
	addressChange bool
	addressQR     bool

	balanceCached bool
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show the next unused address",
	Long: `Scan the account and print the first receive address that has never been
used. With --change the next change address is printed instead.`,
	Args: cobra.NoArgs,
	RunE: runAddress,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the wallet balance",
	Long: `Scan the account and print the spendable balance.

With --cached the balance recorded by the last scan is printed without
contacting the node.`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

// withWallet opens the stored wallet and, when load is set, scans it
// before calling fn.
func withWallet(cmd *cobra.Command, load bool, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.open(); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, commandTimeout)
	defer cancel()
	if load {
		if err := a.wallet.Load(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, a)
}

type addressResult struct {
	Address string `json:"address"`
	Change  bool   `json:"change"`
	qr      bool
}

// Text implements output.Texter.
func (r *addressResult) Text(w io.Writer) error {
	outln(w, r.Address)
	if r.qr {
		output.RenderQR(w, r.Address)
	}
	return nil
}

func runAddress(cmd *cobra.Command, _ []string) error {
	return withWallet(cmd, true, func(_ context.Context, a *app) error {
		next := a.wallet.Address
		if addressChange {
			next = a.wallet.ChangeAddress
		}
		address, err := next()
		if err != nil {
			return err
		}
		return formatter.Print(&addressResult{Address: address, Change: addressChange, qr: addressQR})
	})
}

type balanceResult struct {
	Balance uint64 `json:"balance"`
	KAS     string `json:"kas"`
	UTXOs   int    `json:"utxos"`
	Cached  bool   `json:"cached"`
}

// Text implements output.Texter.
func (r *balanceResult) Text(w io.Writer) error {
	if r.Cached {
		out(w, "%s (cached)\n", output.KAS(r.Balance))
		return nil
	}
	out(w, "%s in %d outputs\n", output.KAS(r.Balance), r.UTXOs)
	return nil
}

func runBalance(cmd *cobra.Command, _ []string) error {
	return withWallet(cmd, !balanceCached, func(_ context.Context, a *app) error {
		balance := a.wallet.Balance()
		return formatter.Print(&balanceResult{
			Balance: balance,
			KAS:     kaspa.FormatKAS(balance),
			UTXOs:   len(a.wallet.UTXOs()),
			Cached:  balanceCached,
		})
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	addressCmd.Flags().BoolVar(&addressChange, "change", false, "show the next change address")
	addressCmd.Flags().BoolVar(&addressQR, "qr", false, "draw the address as a QR code")
	balanceCmd.Flags().BoolVar(&balanceCached, "cached", false, "print the last recorded balance without scanning")

	rootCmd.AddCommand(addressCmd, balanceCmd)
}
