//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
package cli

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/kaswallet/internal/history"
	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/output"
)

var historyCursor int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List wallet transactions",
	Long: `List the wallet's transactions, pending first and then newest first.
Use --cursor with the value printed at the end of a page to continue.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

type historyResult struct {
	history.Page
}

// Text implements output.Texter.
func (r *historyResult) Text(w io.Writer) error {
	if len(r.Transactions) == 0 {
		outln(w, "No transactions")
		return nil
	}
	t := newHistoryTable(r.Transactions)
	if err := t.Render(w); err != nil {
		return err
	}
	if r.HasMore {
		out(w, "\nMore transactions: --cursor %d\n", r.Cursor)
	}
	return nil
}

func newHistoryTable(records []history.Record) *output.Table {
	t := output.NewTable("TIME", "TX", "AMOUNT", "FEE", "STATUS")
	for _, rec := range records {
		amount := rec.Amount
		if !rec.Incoming {
			amount = -amount
		}
		status := string(rec.Status)
		if rec.Status == history.StatusConfirmed {
			status += " (" + strconv.Itoa(rec.Confirmations) + ")"
		}
		t.AddRow(
			rec.Time.UTC().Format("2006-01-02 15:04"),
			shortID(rec.ID),
			kaspa.FormatSignedKAS(amount),
			kaspa.FormatSignedKAS(rec.Fee),
			status,
		)
	}
	return t
}

// shortID abbreviates a transaction id for tables.
func shortID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + ".." + id[len(id)-6:]
}

func runHistory(cmd *cobra.Command, _ []string) error {
	return withWallet(cmd, true, func(ctx context.Context, a *app) error {
		page, err := a.wallet.LoadTransactions(ctx, historyCursor)
		if err != nil {
			return err
		}
		return formatter.Print(&historyResult{Page: page})
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	historyCmd.Flags().IntVar(&historyCursor, "cursor", 0, "position to list from")

	rootCmd.AddCommand(historyCmd)
}
