package fee

import (
	"math/big"

	"github.com/mrz1836/kaswallet/internal/coinselect"
	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/ledger"
	"github.com/mrz1836/kaswallet/internal/platformfee"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// MinimumAmount is the smallest amount worth sending, in sompi. It doubles
// as the smallest platform fee ever charged.
const MinimumAmount = kaspa.SompiPerKaspa

const (
	maxAmountRounds = 16
	// wasteTolerance ends the max-amount search once the unassigned
	// remainder is this small.
	wasteTolerance = 10
)

// MassCalculator returns the mass of a transaction spending inputs of the
// given amounts into outputs.
type MassCalculator interface {
	Mass(inputs []uint64, outputs []*kaspa.TransactionOutput) uint64
}

// MassFunc adapts a function to MassCalculator.
type MassFunc func(inputs []uint64, outputs []*kaspa.TransactionOutput) uint64

// Mass implements MassCalculator.
func (f MassFunc) Mass(inputs []uint64, outputs []*kaspa.TransactionOutput) uint64 {
	return f(inputs, outputs)
}

// PlatformFeeCalculator computes the platform fee for an amount.
type PlatformFeeCalculator interface {
	Enabled() bool
	Address() string
	Calculate(amount uint64, opts platformfee.Options) uint64
}

// CoinSelector funds outputs from a UTXO set.
type CoinSelector interface {
	Select(utxos []ledger.UTXO, outputs []*kaspa.TransactionOutput, feeRate uint64, changeScript kaspa.ScriptPublicKey) (*coinselect.Selection, error)
}

// Request describes a send to be priced or built.
type Request struct {
	Destination string
	Amount      uint64
	FeeRate     uint64
	// Price is the asset price in USD used for the platform fee bounds.
	Price *big.Rat
}

// Plan is a fully priced, unsigned transaction layout.
type Plan struct {
	// Outputs are the destination, the platform fee when charged, and the
	// change when kept, in that order.
	Outputs     []*kaspa.TransactionOutput
	Selection   *coinselect.Selection
	PlatformFee uint64
	// ChangeIndex is the position of the change output or -1.
	ChangeIndex int
}

// NetworkFee is the part of the fee paid to miners.
func (p *Plan) NetworkFee() uint64 {
	return p.Selection.Fee
}

// TotalFee is the network fee plus the platform fee.
func (p *Plan) TotalFee() uint64 {
	return p.Selection.Fee + p.PlatformFee
}

// Estimator prices transactions against a UTXO set.
type Estimator struct {
	params    *kaspa.Params
	mass      MassCalculator
	platform  PlatformFeeCalculator
	selector  CoinSelector
	massLimit uint64
}

// NewEstimator creates an Estimator. A nil mass calculator uses the
// consensus mass rules and a nil selector picks largest first.
func NewEstimator(params *kaspa.Params, platform PlatformFeeCalculator, mass MassCalculator, selector CoinSelector) *Estimator {
	if mass == nil {
		mass = MassFunc(kaspa.TransactionMass)
	}
	if selector == nil {
		selector = coinselect.New()
	}
	if platform == nil {
		platform = platformfee.NewCalculator(nil)
	}
	return &Estimator{
		params:    params,
		mass:      mass,
		platform:  platform,
		selector:  selector,
		massLimit: kaspa.MaximumStandardTransactionMass,
	}
}

// PlatformFee returns the platform fee for amount at price.
func (e *Estimator) PlatformFee(amount uint64, price *big.Rat) uint64 {
	return e.platform.Calculate(amount, platformfee.Options{DustThreshold: MinimumAmount, Price: price})
}

// Plan builds the outputs for req, selects inputs, and appends change
// paying changeAddress.
func (e *Estimator) Plan(utxos []ledger.UTXO, req Request, changeAddress string) (*Plan, error) {
	destScript, err := e.script(req.Destination)
	if err != nil {
		return nil, err
	}
	changeScript, err := e.script(changeAddress)
	if err != nil {
		return nil, err
	}

	outputs := []*kaspa.TransactionOutput{{Value: req.Amount, ScriptPublicKey: destScript}}
	platformFee := e.PlatformFee(req.Amount, req.Price)
	if platformFee > 0 {
		feeScript, err := e.script(e.platform.Address())
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, &kaspa.TransactionOutput{Value: platformFee, ScriptPublicKey: feeScript})
	}

	sel, err := e.selector.Select(utxos, outputs, req.FeeRate, changeScript)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Selection: sel, PlatformFee: platformFee, ChangeIndex: -1}
	if sel.Change > 0 {
		plan.ChangeIndex = len(outputs)
		outputs = append(outputs, &kaspa.TransactionOutput{Value: sel.Change, ScriptPublicKey: changeScript})
	}
	plan.Outputs = outputs
	return plan, nil
}

// EstimateFee returns the network plus platform fee for sending req.
func (e *Estimator) EstimateFee(utxos []ledger.UTXO, req Request, changeAddress string) (uint64, error) {
	plan, err := e.Plan(utxos, req, changeAddress)
	if err != nil {
		return 0, err
	}
	return plan.TotalFee(), nil
}

// EstimateMaxAmount returns the largest amount one transaction can send
// from utxos at feeRate after both fees, or 0 when nothing sendable remains.
//
// Network fee depends on mass, mass on the outputs, and the platform fee
// output on the amount, so the amount is found by a bounded fixed-point
// search: overshoots are pulled back by the deficit and undershoots are
// pushed forward by the remainder net of its own platform fee.
func (e *Estimator) EstimateMaxAmount(utxos []ledger.UTXO, feeRate uint64, price *big.Rat) uint64 {
	if len(utxos) == 0 {
		return 0
	}

	numOutputs := 1
	if e.platform.Enabled() {
		numOutputs = 2
	}
	inputs := coinselect.SortLargestFirst(utxos)
	if n := coinselect.MaxInputs(numOutputs); len(inputs) > n {
		inputs = inputs[:n]
	}
	amounts := make([]uint64, len(inputs))
	var total uint64
	for i, u := range inputs {
		amounts[i] = u.Entry.Amount
		total += u.Entry.Amount
	}
	if total < MinimumAmount {
		return 0
	}

	//nolint:gosec // supply fits int64
	sTotal := int64(total)
	minerFee := int64(feeRate * e.massLimit) //nolint:gosec // bounded by mass limit
	platformFee := int64(e.PlatformFee(clampAmount(sTotal-minerFee), price)) //nolint:gosec // below total
	candidate := sTotal - minerFee - platformFee
	if candidate < int64(MinimumAmount) {
		return 0
	}

	relaxed := platformfee.Options{DustThreshold: 1, Price: price, MinFeeUSD: new(big.Rat)}
	var best int64
	for range maxAmountRounds {
		if candidate <= 0 {
			break
		}
		platformFee = int64(e.PlatformFee(uint64(candidate), price)) //nolint:gosec // below total

		outputs := []*kaspa.TransactionOutput{standardOutput(uint64(candidate))} //nolint:gosec // positive
		if platformFee != 0 {
			outputs = append(outputs, standardOutput(uint64(platformFee))) //nolint:gosec // positive
		}
		mass := e.mass.Mass(amounts, outputs)
		if mass > e.massLimit {
			break
		}
		minerFee = int64(feeRate * mass) //nolint:gosec // bounded by mass limit

		waste := sTotal - candidate - platformFee - minerFee
		if waste < 0 {
			candidate += waste
			continue
		}
		best = max(best, candidate)
		if waste < wasteTolerance {
			break
		}
		candidate += waste - int64(e.platform.Calculate(uint64(waste), relaxed)) //nolint:gosec // waste is positive and below total
	}

	if best < int64(MinimumAmount) {
		return 0
	}
	return uint64(best)
}

// ValidateAmount checks amount against the sendable range.
func (e *Estimator) ValidateAmount(utxos []ledger.UTXO, amount, feeRate uint64, price *big.Rat) error {
	if amount < MinimumAmount {
		return walleterr.AmountTooSmall(MinimumAmount)
	}
	if maxAmount := e.EstimateMaxAmount(utxos, feeRate, price); amount > maxAmount {
		return walleterr.AmountTooLarge(maxAmount)
	}
	return nil
}

func (e *Estimator) script(address string) (kaspa.ScriptPublicKey, error) {
	addr, err := kaspa.DecodeAddress(address, e.params.AddressPrefix)
	if err != nil {
		return kaspa.ScriptPublicKey{}, walleterr.InvalidAddress(address, err)
	}
	return kaspa.PayToAddress(addr)
}

func standardOutput(value uint64) *kaspa.TransactionOutput {
	return &kaspa.TransactionOutput{
		Value:           value,
		ScriptPublicKey: kaspa.ScriptPublicKey{Script: make([]byte, kaspa.StandardOutputScriptSize)},
	}
}

func clampAmount(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
