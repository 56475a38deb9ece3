package models

import (
	"github.com/shopspring/decimal"
)

// DefaultCurrencyPrefix is the prefix used when rendering money cells
const DefaultCurrencyPrefix = "NPR"

// Money is a non-negative amount in the single local currency.
// There is no conversion anywhere in the system.
type Money struct {
	Amount decimal.Decimal
}

// NewMoney builds Money from a decimal. Negative amounts clamp to zero.
func NewMoney(amount decimal.Decimal) Money {
	if amount.IsNegative() {
		return Money{Amount: decimal.Zero}
	}
	return Money{Amount: amount}
}

// MoneyFromFloat is a convenience for tests and literal prices
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// Mul returns the amount multiplied by a quantity
func (m Money) Mul(quantity int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(quantity)))}
}

// Add returns the sum of two amounts
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount)}
}

// Equal compares amounts numerically (1290.5 == 1290.50)
func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Float64 returns the amount as float64 for storage and JSON
func (m Money) Float64() float64 {
	f, _ := m.Amount.Float64()
	return f
}

// String renders the amount with two decimals and no prefix
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

// Format renders "<PREFIX> <amount>", e.g. "NPR 1500.00"
func (m Money) Format(prefix string) string {
	if prefix == "" {
		prefix = DefaultCurrencyPrefix
	}
	return prefix + " " + m.Amount.StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number with two decimals
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Amount.StringFixed(2)), nil
}
