// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings,
// formatting them for display and converting between cents and decimal
// representations.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CurrencySymbol is the symbol of the single implicit currency.
const CurrencySymbol = "$"

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to Money with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Returns ErrInvalidAmount for empty,
// malformed, negative or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> Money{Cents: 1234}
//	ParseAmount("12,345") -> Money{Cents: 1235}
//	ParseAmount("0.004")  -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	m := MoneyFromDecimal(d)
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseBudget is ParseAmount except that zero is accepted; a zero budget
// means no budget.
func ParseBudget(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err == nil && d.IsZero() {
		return Money{}, nil
	}
	return ParseAmount(s)
}

// MoneyFromDecimal converts an amount in major units to Money, rounding
// half away from zero to whole cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// Cents is a small constructor used mostly by tests and fixtures.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount as a float64 for display purposes only.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// String renders the amount with two decimals and no currency symbol.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// FormatCurrency renders an amount the way the app displays it,
// e.g. "$1,234.56" or "-$12.00".
func FormatCurrency(m Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, CurrencySymbol, humanize.Comma(cents/100), cents%100)
}
