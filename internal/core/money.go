// Package core provides the ledger data model and money handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and the decimal representation used in
// persisted snapshots.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is prepended by FormatCurrency.
const CurrencySymbol = "₹"

// MaxAmount is the largest amount a single transaction or salary may carry
// (10 trillion in major units). Balances are summed with overflow checks.
var MaxAmount = Money{Cents: 1_000_000_000_000_000}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	// decimal accepts exponents; amounts typed by a person never carry one
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents, ok := decimalToCents(d)
	if !ok || cents <= 0 {
		return 0, ErrInvalidAmount
	}
	if cents > MaxAmount.Cents {
		return 0, ErrAmountTooLarge
	}
	return cents, nil
}

// ParseMoney is ParseDecimalToCents wrapped into Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

func decimalToCents(d decimal.Decimal) (int64, bool) {
	shifted := d.Shift(2).Round(0)
	if !shifted.IsInteger() {
		return 0, false
	}
	big := shifted.BigInt()
	if !big.IsInt64() {
		return 0, false
	}
	return big.Int64(), true
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two fixed decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// FormatCurrency renders the amount the way the dashboard shows it.
func FormatCurrency(m Money) string {
	return CurrencySymbol + m.String()
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// AddChecked is Add that reports false instead of wrapping around.
func (m Money) AddChecked(o Money) (Money, bool) {
	sum := m.Cents + o.Cents
	if (o.Cents > 0 && sum < m.Cents) || (o.Cents < 0 && sum > m.Cents) {
		return Money{}, false
	}
	return Money{Cents: sum}, true
}

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool { return m.Cents == 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// DivTrunc splits the amount into n equal shares, dropping the remainder.
// Stored split shares have always been computed this way, so it must not
// redistribute the leftover cents.
func (m Money) DivTrunc(n int) Money {
	if n <= 0 {
		return Money{}
	}
	return Money{Cents: m.Cents / int64(n)}
}

// MarshalJSON encodes money as a plain number in major units (12000, 33.33).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string in major units.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("decode money %q: %w", raw, err)
	}
	cents, ok := decimalToCents(d)
	if !ok {
		return fmt.Errorf("decode money %q: %w", raw, ErrInvalidAmount)
	}
	m.Cents = cents
	return nil
}
