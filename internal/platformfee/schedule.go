// Package platformfee computes the service fee charged on top of the
// network fee, from a schedule published by the platform.
package platformfee

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// ErrInvalidSchedule indicates the fee service returned unusable values.
var ErrInvalidSchedule = &walleterr.WalletError{
	Code:     "INVALID_FEE_SCHEDULE",
	Message:  "invalid platform fee schedule",
	ExitCode: walleterr.ExitGeneral,
}

// Schedule is a platform fee schedule. The zero value is disabled.
type Schedule struct {
	Enabled bool
	// Address receives the fee output.
	Address string
	// Fee is the fraction of the amount charged.
	Fee *big.Rat
	// MinFeeUSD and MaxFeeUSD bound the fee in USD. Nil means unbounded.
	MinFeeUSD *big.Rat
	MaxFeeUSD *big.Rat
	// FeeAddition is a flat amount in sompi added after bounding.
	FeeAddition uint64
}

// Disabled returns a schedule that charges nothing.
func Disabled() *Schedule {
	return &Schedule{}
}

// wireSchedule is the JSON shape served by the fee service. An empty
// object means the fee is disabled for the asset.
type wireSchedule struct {
	Address     string      `json:"address,omitempty"`
	Fee         json.Number `json:"fee,omitempty"`
	MinFee      json.Number `json:"minFee,omitempty"`
	MaxFee      json.Number `json:"maxFee,omitempty"`
	FeeAddition json.Number `json:"feeAddition,omitempty"`
}

func (w *wireSchedule) schedule() (*Schedule, error) {
	if w.Address == "" && w.Fee == "" {
		return Disabled(), nil
	}
	if w.Address == "" {
		return nil, walleterr.WithDetails(ErrInvalidSchedule, map[string]string{"field": "address"})
	}

	s := &Schedule{Enabled: true, Address: w.Address}
	var err error
	if s.Fee, err = parseRat(w.Fee, "fee"); err != nil {
		return nil, err
	}
	if s.Fee == nil {
		s.Fee = new(big.Rat)
	}
	if s.MinFeeUSD, err = parseRat(w.MinFee, "minFee"); err != nil {
		return nil, err
	}
	if s.MaxFeeUSD, err = parseRat(w.MaxFee, "maxFee"); err != nil {
		return nil, err
	}
	if w.FeeAddition != "" {
		add, perr := strconv.ParseUint(w.FeeAddition.String(), 10, 64)
		if perr != nil {
			return nil, walleterr.WithDetails(ErrInvalidSchedule, map[string]string{"feeAddition": w.FeeAddition.String()})
		}
		s.FeeAddition = add
	}
	return s, nil
}

func parseRat(n json.Number, field string) (*big.Rat, error) {
	if n == "" {
		return nil, nil //nolint:nilnil // absent bound
	}
	r, ok := new(big.Rat).SetString(n.String())
	if !ok || r.Sign() < 0 {
		return nil, walleterr.WithDetails(ErrInvalidSchedule, map[string]string{field: n.String()})
	}
	return r, nil
}

// ParseSchedule decodes a fee service response.
func ParseSchedule(data []byte) (*Schedule, error) {
	var w wireSchedule
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	return w.schedule()
}

// RatFromFloat converts a configured decimal such as 0.005 to an exact
// rational using its shortest decimal representation.
func RatFromFloat(f float64) *big.Rat {
	r, _ := new(big.Rat).SetString(strconv.FormatFloat(f, 'f', -1, 64))
	return r
}

// Static builds an enabled schedule from local settings.
func Static(address string, fee, minFeeUSD, maxFeeUSD float64, feeAddition uint64) *Schedule {
	s := &Schedule{
		Enabled:     true,
		Address:     address,
		Fee:         RatFromFloat(fee),
		FeeAddition: feeAddition,
	}
	if minFeeUSD > 0 {
		s.MinFeeUSD = RatFromFloat(minFeeUSD)
	}
	if maxFeeUSD > 0 {
		s.MaxFeeUSD = RatFromFloat(maxFeeUSD)
	}
	return s
}
