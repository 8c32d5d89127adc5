// Package core provides the expense domain types and amount handling.
//
// Amounts are currency-agnostic decimals; no conversion is ever performed.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal string and requires it to be strictly positive.
//
// Surrounding whitespace is ignored. Thousands separators are not accepted,
// so "1,200" is rejected rather than silently read as 1.2.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("0.01")  -> 0.01, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
//	ParseAmount("-5")    -> 0, ErrInvalidAmount
//	ParseAmount("1E-3")  -> 0.001, nil
//	ParseAmount("1e20")  -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Exponent bounds keep formatting and comparisons cheap. The lower bound
// leaves room for float noise from spreadsheet cells such as
// 3.3000000000000003.
const (
	minAmountExponent = -20
	maxAmountExponent = 15
)

// MaxAmount is the largest accepted expense or budget amount.
var MaxAmount = decimal.New(1, 12)

// CheckAmount reports ErrInvalidAmount unless d is positive and within
// range.
func CheckAmount(d decimal.Decimal) error {
	if !inRange(d) || !d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// inRange checks the exponent before comparing magnitudes, because
// comparing rescales to a common exponent.
func inRange(d decimal.Decimal) bool {
	if e := d.Exponent(); e < minAmountExponent || e > maxAmountExponent {
		return false
	}
	return d.Abs().LessThanOrEqual(MaxAmount)
}

// FormatAmount renders an amount with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
