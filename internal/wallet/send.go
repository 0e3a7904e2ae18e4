package wallet

import (
	"context"
	"math/big"

	"github.com/mrz1836/kaswallet/internal/assembler"
	"github.com/mrz1836/kaswallet/internal/fee"
	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/platformfee"
)

// LoadFeeRates fetches the node fee rates and replaces the table.
func (w *Wallet) LoadFeeRates(ctx context.Context) error {
	_, err := w.rates.Load(ctx)
	return err
}

// FeeRates lists the loaded tiers in the order minimum, default, fastest.
func (w *Wallet) FeeRates() []fee.Tier {
	return w.rates.Cached().Available()
}

// FeeRate returns the loaded rate for tier in sompi per gram.
func (w *Wallet) FeeRate(tier fee.Tier) (uint64, error) {
	return w.rates.Cached().Rate(tier)
}

// Cleanup drops cached fee rates and history.
func (w *Wallet) Cleanup() {
	w.rates.Invalidate()
	w.mu.Lock()
	w.history = nil
	w.mu.Unlock()
}

// estimator resolves the fee rate for tier and an estimator for the
// current platform fee schedule.
func (w *Wallet) estimator(ctx context.Context, tier fee.Tier) (*fee.Estimator, uint64, error) {
	table, err := w.rates.Table(ctx)
	if err != nil {
		return nil, 0, err
	}
	rate, err := table.Rate(tier)
	if err != nil {
		return nil, 0, err
	}

	schedule, err := w.platform.Schedule(ctx)
	if err != nil {
		return nil, 0, err
	}
	est := fee.NewEstimator(w.params, platformfee.NewCalculator(schedule), nil, nil)
	return est, rate, nil
}

// EstimateMaxAmount returns the largest amount one transaction can send.
func (w *Wallet) EstimateMaxAmount(ctx context.Context, tier fee.Tier, price *big.Rat) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLoaded(); err != nil {
		return 0, err
	}

	est, rate, err := w.estimator(ctx, tier)
	if err != nil {
		return 0, err
	}
	return est.EstimateMaxAmount(w.ledger.UTXOs(), rate, price), nil
}

// EstimateFee returns the network plus platform fee for req.
func (w *Wallet) EstimateFee(ctx context.Context, req SendRequest) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLoaded(); err != nil {
		return 0, err
	}
	if err := w.ValidateAddress(req.Address); err != nil {
		return 0, err
	}

	est, rate, err := w.estimator(ctx, req.Tier)
	if err != nil {
		return 0, err
	}
	change, err := w.account.Address(w.ledger.Book().Next(hdwallet.Change))
	if err != nil {
		return 0, err
	}
	return est.EstimateFee(w.ledger.UTXOs(), w.request(req, rate), change)
}

// ValidateAmount rejects amounts below one KAS or above the current
// maximum. The errors carry the violated limit.
func (w *Wallet) ValidateAmount(ctx context.Context, amount uint64, tier fee.Tier, price *big.Rat) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLoaded(); err != nil {
		return err
	}
	return w.validateAmount(ctx, amount, tier, price)
}

func (w *Wallet) validateAmount(ctx context.Context, amount uint64, tier fee.Tier, price *big.Rat) error {
	est, rate, err := w.estimator(ctx, tier)
	if err != nil {
		return err
	}
	return est.ValidateAmount(w.ledger.UTXOs(), amount, rate, price)
}

// Send validates, signs, and submits req with keys derived from seed, then
// applies the transaction to the ledger without reloading.
func (w *Wallet) Send(ctx context.Context, req SendRequest, seed []byte) (result *SendResult, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() { w.metrics.RecordWalletOp(err) }()

	if err := w.requireLoaded(); err != nil {
		return nil, err
	}
	if err := w.ValidateAddress(req.Address); err != nil {
		return nil, err
	}
	if err := w.validateAmount(ctx, req.Amount, req.Tier, req.Price); err != nil {
		return nil, err
	}

	signer, err := w.signer(seed)
	if err != nil {
		return nil, err
	}
	defer signer.Zero()

	est, rate, err := w.estimator(ctx, req.Tier)
	if err != nil {
		return nil, err
	}

	asm := assembler.New(w.params, est, w.account, w.node, w.logger)
	res, err := asm.BuildAndSubmit(ctx, w.ledger, w.request(req, rate), signer)
	if err != nil {
		return nil, err
	}

	w.ledger = res.Ledger
	w.balance = res.Ledger.Balance()
	w.history = nil
	if err := w.persist(w.balance); err != nil {
		// The transaction is already broadcast; the next load rewrites the snapshot.
		w.logger.Error("persisting balance after %s: %v", res.TransactionID, err)
	}

	return &SendResult{
		TransactionID: res.TransactionID,
		Amount:        req.Amount,
		NetworkFee:    res.Plan.NetworkFee(),
		PlatformFee:   res.Plan.PlatformFee,
		Inputs:        len(res.Plan.Selection.Inputs),
		Change:        res.Plan.Selection.Change,
		Balance:       w.balance,
	}, nil
}

func (w *Wallet) request(req SendRequest, rate uint64) fee.Request {
	return fee.Request{
		Destination: req.Address,
		Amount:      req.Amount,
		FeeRate:     rate,
		Price:       req.Price,
	}
}
