package platformfee

import (
	"math/big"

	"github.com/mrz1836/kaswallet/internal/kaspa"
)

// Options tune a single fee calculation.
type Options struct {
	// DustThreshold is the smallest fee ever charged when the fee is enabled.
	DustThreshold uint64
	// Price is the asset price in USD. The USD bounds are skipped without it.
	Price *big.Rat
	// MinFeeUSD overrides the schedule minimum when non-nil. Zero disables
	// the minimum.
	MinFeeUSD *big.Rat
}

// Calculator applies a schedule to amounts.
type Calculator struct {
	schedule *Schedule
}

// NewCalculator creates a Calculator. A nil schedule is disabled.
func NewCalculator(s *Schedule) *Calculator {
	if s == nil {
		s = Disabled()
	}
	return &Calculator{schedule: s}
}

// Enabled reports whether a fee is charged at all.
func (c *Calculator) Enabled() bool {
	return c.schedule.Enabled
}

// Address returns the fee output address.
func (c *Calculator) Address() string {
	return c.schedule.Address
}

// Schedule returns the schedule in use.
func (c *Calculator) Schedule() *Schedule {
	return c.schedule
}

// Calculate returns the platform fee in sompi for amount.
//
// The proportional fee is floored, raised to the USD minimum, capped at the
// USD maximum, increased by the flat addition, and finally raised to the
// dust threshold.
func (c *Calculator) Calculate(amount uint64, opts Options) uint64 {
	s := c.schedule
	if !s.Enabled {
		return 0
	}

	fee := new(big.Int)
	if s.Fee != nil {
		v := new(big.Rat).Mul(new(big.Rat).SetInt(new(big.Int).SetUint64(amount)), s.Fee)
		fee.Quo(v.Num(), v.Denom())
	}

	if opts.Price != nil && opts.Price.Sign() > 0 {
		minUSD := s.MinFeeUSD
		if opts.MinFeeUSD != nil {
			minUSD = opts.MinFeeUSD
		}
		if minUSD != nil {
			if floor := usdToSompi(minUSD, opts.Price); fee.Cmp(floor) < 0 {
				fee = floor
			}
		}
		if s.MaxFeeUSD != nil {
			if ceiling := usdToSompi(s.MaxFeeUSD, opts.Price); fee.Cmp(ceiling) > 0 {
				fee = ceiling
			}
		}
	}

	fee.Add(fee, new(big.Int).SetUint64(s.FeeAddition))
	if !fee.IsUint64() {
		return ^uint64(0)
	}
	out := fee.Uint64()
	if out < opts.DustThreshold {
		out = opts.DustThreshold
	}
	return out
}

// usdToSompi converts usd at price to sompi, rounding the KAS value half up
// at eight decimals.
func usdToSompi(usd, price *big.Rat) *big.Int {
	kas := new(big.Rat).Quo(usd, price)
	sompi := kas.Mul(kas, new(big.Rat).SetInt(new(big.Int).SetUint64(kaspa.SompiPerKaspa)))
	// floor((2n + d) / 2d)
	num := new(big.Int).Mul(sompi.Num(), big.NewInt(2))
	num.Add(num, sompi.Denom())
	den := new(big.Int).Mul(sompi.Denom(), big.NewInt(2))
	return num.Quo(num, den)
}
