// Package types provides common value types.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a EUR amount with full decimal precision.
// Voucher amounts carry at most two fractional digits; decimal.Decimal
// avoids the rounding errors of float64.
type Money = decimal.Decimal

// NewMoneyFromString parses a monetary value. Preferred constructor.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney parses a monetary value, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroMoney returns the zero amount.
func ZeroMoney() Money {
	return decimal.Zero
}

// ValidAmount reports whether m is a positive amount with at most
// two fractional digits.
func ValidAmount(m Money) bool {
	return m.IsPositive() && m.Exponent() >= -2
}
