package kaspa

import (
	"math"
	"math/big"
	"strings"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// Decimals is the number of decimal places of one KAS.
const Decimals = 8

// SompiPerKaspa is the number of sompi in one KAS.
const SompiPerKaspa uint64 = 100_000_000

// ParseKAS parses a decimal KAS amount such as "1.5" into sompi.
// Digits beyond eight decimal places are truncated.
//
//nolint:gocognit // Decimal parsing requires sequential validation steps
func ParseKAS(amount string) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") {
		return 0, walleterr.ErrInvalidAmount
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return 0, walleterr.ErrInvalidAmount
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}

	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok || intVal.Sign() < 0 {
		return 0, walleterr.ErrInvalidAmount
	}
	result := new(big.Int).Mul(intVal, new(big.Int).SetUint64(SompiPerKaspa))

	if decPart != "" {
		for _, c := range decPart {
			if c < '0' || c > '9' {
				return 0, walleterr.ErrInvalidAmount
			}
		}
		for len(decPart) < Decimals {
			decPart += "0"
		}
		decVal, _ := new(big.Int).SetString(decPart[:Decimals], 10)
		result.Add(result, decVal)
	}

	if !result.IsUint64() {
		return 0, walleterr.ErrInvalidAmount
	}
	return result.Uint64(), nil
}

// FormatKAS renders sompi as a decimal KAS string without trailing zeros.
func FormatKAS(sompi uint64) string {
	str := new(big.Int).SetUint64(sompi).String()
	for len(str) <= Decimals {
		str = "0" + str
	}

	pos := len(str) - Decimals
	result := str[:pos] + "." + str[pos:]
	for len(result) > 1 && result[len(result)-1] == '0' && result[len(result)-2] != '.' {
		result = result[:len(result)-1]
	}
	return result
}

// FormatSignedKAS renders a signed sompi delta.
func FormatSignedKAS(sompi int64) string {
	if sompi >= 0 {
		return FormatKAS(uint64(sompi))
	}
	if sompi == math.MinInt64 {
		return "-" + FormatKAS(uint64(math.MaxInt64)+1)
	}
	return "-" + FormatKAS(uint64(-sompi))
}
