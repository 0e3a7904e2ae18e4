//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
package cli

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/kaswallet/internal/config"
	"github.com/mrz1836/kaswallet/internal/fee"
	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/output"
	"github.com/mrz1836/kaswallet/internal/platformfee"
	"github.com/mrz1836/kaswallet/internal/wallet"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// amountMax selects the largest sendable amount.
const amountMax = "max"

var (
	estimateTier   string
	estimatePrice  string
	estimateAmount string
	estimateTo     string
)

var feeRatesCmd = &cobra.Command{
	Use:   "feerates",
	Short: "Show the node fee rates",
	Args:  cobra.NoArgs,
	RunE:  runFeeRates,
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate fees and sendable amounts",
}

var estimateMaxCmd = &cobra.Command{
	Use:   "max",
	Short: "Show the largest amount one transaction can send",
	Args:  cobra.NoArgs,
	RunE:  runEstimateMax,
}

var estimateFeeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Show the total fee for a payment",
	Long: `Show the network plus platform fee for sending --amount to --to.
Without --to a foreign exchange deposit address is used for the preview.`,
	Args: cobra.NoArgs,
	RunE: runEstimateFee,
}

type feeRatesResult struct {
	Rates []feeRate `json:"rates"`
}

type feeRate struct {
	Tier fee.Tier `json:"tier"`
	Rate uint64   `json:"rate"`
}

// Text implements output.Texter.
func (r *feeRatesResult) Text(w io.Writer) error {
	t := output.NewTable("TIER", "SOMPI/GRAM")
	for _, rate := range r.Rates {
		t.AddRow(string(rate.Tier), strconv.FormatUint(rate.Rate, 10))
	}
	return t.Render(w)
}

func runFeeRates(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := contextWithTimeout(cmd, commandTimeout)
	defer cancel()
	if err := a.wallet.LoadFeeRates(ctx); err != nil {
		return err
	}

	res := &feeRatesResult{Rates: make([]feeRate, 0, len(fee.Tiers))}
	for _, tier := range a.wallet.FeeRates() {
		rate, err := a.wallet.FeeRate(tier)
		if err != nil {
			return err
		}
		res.Rates = append(res.Rates, feeRate{Tier: tier, Rate: rate})
	}
	return formatter.Print(res)
}

type amountResult struct {
	Tier   fee.Tier `json:"tier"`
	Amount uint64   `json:"amount"`
	Fee    *uint64  `json:"fee,omitempty"`
}

// Text implements output.Texter.
func (r *amountResult) Text(w io.Writer) error {
	if r.Fee != nil {
		out(w, "%s fee to send %s (%s)\n", output.KAS(*r.Fee), output.KAS(r.Amount), r.Tier)
		return nil
	}
	out(w, "%s (%s)\n", output.KAS(r.Amount), r.Tier)
	return nil
}

func runEstimateMax(cmd *cobra.Command, _ []string) error {
	tier, price, err := feeOptions(estimateTier, estimatePrice, cfg)
	if err != nil {
		return err
	}
	return withWallet(cmd, true, func(ctx context.Context, a *app) error {
		amount, err := a.wallet.EstimateMaxAmount(ctx, tier, price)
		if err != nil {
			return err
		}
		return formatter.Print(&amountResult{Tier: tier, Amount: amount})
	})
}

func runEstimateFee(cmd *cobra.Command, _ []string) error {
	tier, price, err := feeOptions(estimateTier, estimatePrice, cfg)
	if err != nil {
		return err
	}
	return withWallet(cmd, true, func(ctx context.Context, a *app) error {
		to, err := previewAddress(a, estimateTo)
		if err != nil {
			return err
		}
		amount, err := resolveAmount(ctx, a.wallet, estimateAmount, tier, price)
		if err != nil {
			return err
		}
		total, err := a.wallet.EstimateFee(ctx, wallet.SendRequest{Address: to, Amount: amount, Tier: tier, Price: price})
		if err != nil {
			return err
		}
		return formatter.Print(&amountResult{Tier: tier, Amount: amount, Fee: &total})
	})
}

// previewAddress returns the destination for a fee preview. Mainnet
// previews pay a foreign exchange address; other networks pay the wallet's
// own next address.
func previewAddress(a *app, to string) (string, error) {
	if to != "" {
		return to, nil
	}
	if a.params.Name == kaspa.Mainnet {
		return wallet.DummyExchangeDepositAddress, nil
	}
	return a.wallet.Address()
}

// feeOptions parses the fee tier and the KAS price in USD. Without a
// --price flag the configured price is used; no price at all skips the
// platform fee USD bounds.
func feeOptions(tierName, priceText string, c *config.Config) (fee.Tier, *big.Rat, error) {
	tier, err := fee.ParseTier(tierName)
	if err != nil {
		return "", nil, err
	}
	price, err := parsePrice(priceText)
	if err != nil {
		return "", nil, err
	}
	if price == nil && c != nil && c.PlatformFee.PriceUSD > 0 {
		price = platformfee.RatFromFloat(c.PlatformFee.PriceUSD)
	}
	return tier, price, nil
}

func parsePrice(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil //nolint:nilnil // no price is a valid answer
	}
	price, ok := new(big.Rat).SetString(s)
	if !ok || price.Sign() <= 0 {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{"price": s})
	}
	return price, nil
}

// amountEstimator is the part of the wallet resolveAmount needs.
type amountEstimator interface {
	EstimateMaxAmount(ctx context.Context, tier fee.Tier, price *big.Rat) (uint64, error)
}

// resolveAmount parses a KAS decimal, or "max" for the largest sendable
// amount at tier.
func resolveAmount(ctx context.Context, w amountEstimator, s string, tier fee.Tier, price *big.Rat) (uint64, error) {
	if strings.EqualFold(strings.TrimSpace(s), amountMax) {
		return w.EstimateMaxAmount(ctx, tier, price)
	}
	amount, err := kaspa.ParseKAS(s)
	if err != nil {
		return 0, walleterr.WithSuggestion(
			walleterr.WithDetails(err, map[string]string{"amount": s}),
			fmt.Sprintf("Use a KAS decimal such as 12.5, or %q", amountMax),
		)
	}
	return amount, nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	for _, c := range []*cobra.Command{estimateMaxCmd, estimateFeeCmd} {
		c.Flags().StringVar(&estimateTier, "fee-rate", string(fee.Default), "fee tier: minimum, default, fastest")
		c.Flags().StringVar(&estimatePrice, "price", "", "KAS price in USD for platform fee bounds")
	}
	estimateFeeCmd.Flags().StringVar(&estimateAmount, "amount", "", "amount in KAS, or max")
	estimateFeeCmd.Flags().StringVar(&estimateTo, "to", "", "destination address")
	_ = estimateFeeCmd.MarkFlagRequired("amount")

	estimateCmd.AddCommand(estimateMaxCmd, estimateFeeCmd)
	rootCmd.AddCommand(feeRatesCmd, estimateCmd)
}
