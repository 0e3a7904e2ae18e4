//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/kaswallet/internal/output"
	"github.com/mrz1836/kaswallet/internal/wallet"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

var (
	sendTo     string
	sendAmount string
	sendTier   string
	sendPrice  string
	sendYes    bool
)

// ErrCanceled is returned when the user declines a confirmation.
var ErrCanceled = walleterr.New("CANCELED", "canceled by user")

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send KAS",
	Long: `Send KAS to an address. The amount is a KAS decimal or "max" for the
largest amount one transaction can carry after fees.

The keystore password is read from KASWALLET_PASSWORD when set.

Example:
  kaswallet send --to kaspa:qp... --amount 12.5
  kaswallet send --to kaspa:qp... --amount max --fee-rate fastest --yes`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

type sendResult struct {
	*wallet.SendResult

	To          string `json:"to"`
	ExplorerURL string `json:"explorer_url"`
}

// Text implements output.Texter.
func (r *sendResult) Text(w io.Writer) error {
	t := output.NewTable()
	t.AddRow("Transaction", r.TransactionID)
	t.AddRow("To", r.To)
	t.AddRow("Amount", output.KAS(r.Amount))
	t.AddRow("Network fee", output.KAS(r.NetworkFee))
	if r.PlatformFee > 0 {
		t.AddRow("Platform fee", output.KAS(r.PlatformFee))
	}
	t.AddRow("Inputs", fmt.Sprint(r.Inputs))
	if r.Change > 0 {
		t.AddRow("Change", output.KAS(r.Change))
	}
	t.AddRow("Balance", output.KAS(r.Balance))
	t.AddRow("Explorer", r.ExplorerURL)
	return t.Render(w)
}

func runSend(cmd *cobra.Command, _ []string) error {
	tier, price, err := feeOptions(sendTier, sendPrice, cfg)
	if err != nil {
		return err
	}

	return withWallet(cmd, true, func(ctx context.Context, a *app) error {
		if err := a.wallet.ValidateAddress(sendTo); err != nil {
			return err
		}
		amount, err := resolveAmount(ctx, a.wallet, sendAmount, tier, price)
		if err != nil {
			return err
		}
		if err := a.wallet.ValidateAmount(ctx, amount, tier, price); err != nil {
			return err
		}
		req := wallet.SendRequest{Address: sendTo, Amount: amount, Tier: tier, Price: price}

		total, err := a.wallet.EstimateFee(ctx, req)
		if err != nil {
			return err
		}
		if !sendYes {
			question := fmt.Sprintf("Send %s to %s with %s in fees?", output.KAS(amount), sendTo, output.KAS(total))
			if !promptConfirmFn(question) {
				return ErrCanceled
			}
		}

		seed, err := unlockSeed(a.keystore)
		if err != nil {
			return err
		}
		defer zero(seed)

		res, err := a.wallet.Send(ctx, req, seed)
		if err != nil {
			return err
		}
		logger.Info("sent %d sompi to %s in %s", res.Amount, sendTo, res.TransactionID)
		return formatter.Print(&sendResult{
			SendResult:  res,
			To:          sendTo,
			ExplorerURL: a.params.TransactionURL(res.TransactionID),
		})
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "destination address")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in KAS, or max")
	sendCmd.Flags().StringVar(&sendTier, "fee-rate", "default", "fee tier: minimum, default, fastest")
	sendCmd.Flags().StringVar(&sendPrice, "price", "", "KAS price in USD for platform fee bounds")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip the confirmation prompt")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(sendCmd)
}
