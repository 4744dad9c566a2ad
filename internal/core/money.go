// Package core holds the expense-tracking domain model: entries, money
// amounts in integer cents, and the owner-scoped aggregation logic.
//
// This file contains parsing and formatting of monetary amounts. Amounts are
// user-typed decimal strings and are stored as cents; calculations never touch
// floating point.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-typed decimal string to Money with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted. Negative and zero amounts are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents (half rounds up)
//	ParseAmount("12.344") -> 1234 cents (rounds down)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only plain positive values allowed
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	if !cents.BigInt().IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Units returns the major-unit value as a float64 for display purposes only.
// Use cents for calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount as a plain decimal, e.g. "12.34".
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}
