// Package money provides the fixed-point monetary value object used for all
// balances and transaction amounts.
package money

import (
	"errors"
	"fmt"

	"github.com/finvault/ledger/pkg/currency"
	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch is returned when arithmetic mixes currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrPrecisionExceeded is returned when an amount carries more fractional
	// digits than the currency allows.
	ErrPrecisionExceeded = errors.New("amount exceeds currency precision")

	// ErrAmountOutOfRange is returned when an amount does not fit the
	// smallest-unit integer representation.
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Money is a monetary value in a specific currency.
//
// Invariants:
//   - The amount is stored as an integer in the smallest currency unit
//     (e.g. cents for USD). No floating point touches a balance.
//   - The currency code must be a valid, registered ISO 4217 code.
//   - Arithmetic requires matching currencies.
type Money struct {
	amount   int64
	currency currency.Code
}

// New creates a Money from an amount already expressed in the smallest
// currency unit.
func New(amount int64, code currency.Code) (Money, error) {
	if code == "" {
		code = currency.DefaultCurrency
	}
	if !currency.IsValidFormat(code.String()) {
		return Money{}, currency.ErrInvalidCurrencyCode
	}
	if !currency.IsSupported(code) {
		return Money{}, currency.ErrUnsupportedCurrency
	}
	return Money{amount: amount, currency: code}, nil
}

// Parse creates a Money from a decimal string such as "12.34", validating
// that it does not exceed the currency's fractional digits.
func Parse(s string, code currency.Code) (Money, error) {
	if code == "" {
		code = currency.DefaultCurrency
	}
	meta, err := currency.Get(code)
	if err != nil {
		return Money{}, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	scaled := d.Shift(int32(meta.Decimals))
	if !scaled.IsInteger() {
		return Money{}, ErrPrecisionExceeded
	}
	if !scaled.BigInt().IsInt64() {
		return Money{}, ErrAmountOutOfRange
	}
	return Money{amount: scaled.IntPart(), currency: code}, nil
}

// MustParse is Parse that panics on error. Test helper.
func MustParse(s string, code currency.Code) Money {
	m, err := Parse(s, code)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the amount in the smallest currency unit.
func (m Money) Amount() int64 { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() currency.Code { return m.currency }

// Decimal returns the amount as a decimal in the main currency unit.
func (m Money) Decimal() decimal.Decimal {
	meta, err := currency.Get(m.currency)
	if err != nil {
		return decimal.New(m.amount, 0)
	}
	return decimal.New(m.amount, -int32(meta.Decimals))
}

// Add returns the sum of two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Sub returns the difference of two amounts of the same currency.
func (m Money) Sub(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// Negate returns the amount with its sign flipped.
func (m Money) Negate() Money {
	return Money{amount: -m.amount, currency: m.currency}
}

// Equals reports whether two Money values have the same currency and amount.
func (m Money) Equals(other Money) bool {
	return m.SameCurrency(other) && m.amount == other.amount
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) (bool, error) {
	if !m.SameCurrency(other) {
		return false, ErrCurrencyMismatch
	}
	return m.amount < other.amount, nil
}

// SameCurrency reports whether both values share a currency.
func (m Money) SameCurrency(other Money) bool {
	return m.currency == other.currency
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.amount > 0 }

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool { return m.amount < 0 }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// String renders the amount in the main currency unit, e.g. "12.34 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().String(), m.currency)
}
