package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an immutable amount/currency pair. Amounts are never negative and
// arithmetic is only defined between values of the same currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates and constructs a Money value. The currency code is
// upper-cased; amounts below zero are rejected.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return Money{}, &RuleError{Code: CodeMoneyCurrencyRequired, Message: "currency is required"}
	}
	if len(currency) != 3 {
		return Money{}, &RuleError{Code: CodeMoneyCurrencyRequired, Message: fmt.Sprintf("currency %q must be a 3-letter code", currency)}
	}
	if amount.IsNegative() {
		return Money{}, &RuleError{Code: CodeMoneyNegative, Message: "amount cannot be negative"}
	}
	return Money{amount: amount, currency: currency}, nil
}

// ParseMoney constructs a Money value from a decimal string such as "25.00".
func ParseMoney(amount, currency string) (Money, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, &RuleError{Code: CodeMoneyNegative, Message: fmt.Sprintf("amount %q is not a valid decimal", amount)}
	}
	return NewMoney(value, currency)
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	money, err := NewMoney(decimal.Zero, currency)
	if err != nil {
		return Money{amount: decimal.Zero, currency: strings.ToUpper(strings.TrimSpace(currency))}
	}
	return money
}

// Amount exposes the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency exposes the upper-cased currency code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Add returns the sum of two same-currency amounts.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns the difference of two same-currency amounts. A negative
// result is a rule violation, not a representable Money.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, &RuleError{Code: CodeMoneyNegative, Message: "resulting amount cannot be negative"}
	}
	return Money{amount: result, currency: m.currency}, nil
}

// MultiplyInt scales the amount by a non-negative integer factor.
func (m Money) MultiplyInt(factor int) (Money, error) {
	if factor < 0 {
		return Money{}, &RuleError{Code: CodeMoneyNegative, Message: "multiplier cannot be negative"}
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(factor))), currency: m.currency}, nil
}

// Equal reports value equality on amount and currency.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThanOrEqual compares two same-currency amounts.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.currency != other.currency {
		return &RuleError{
			Code:    CodeMoneyCurrencyMismatch,
			Message: fmt.Sprintf("cannot operate on different currencies: %s and %s", m.currency, other.currency),
		}
	}
	return nil
}

// String renders the amount followed by its currency code.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}
