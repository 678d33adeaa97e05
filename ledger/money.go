package ledger

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Two-decimal monetary value
// =============================================================================

// Money is a monetary value stored with exactly two decimal places.
// Every constructor and arithmetic operation re-rounds, so drift from
// binary floating point can never accumulate (0.1 + 0.2 == 0.30).
//
// The zero value is a valid Money of 0.00.
type Money struct {
	value decimal.Decimal
}

// NewMoney creates a Money from a float, rounded to cents.
// NaN and infinities collapse to zero.
func NewMoney(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}
	}
	return Money{value: decimal.NewFromFloat(f).Round(2)}
}

// MoneyFromDecimal creates a Money from a decimal, rounded to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{value: d.Round(2)}
}

// ParseMoney parses a decimal string ("12.50") into a Money.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, err
	}
	return MoneyFromDecimal(d), nil
}

// ParseAmount converts a loosely typed payment amount into a Money.
// Callers submit amounts as JSON numbers, numeric strings, or nothing at
// all; anything that is not a finite number parses as zero. Validation
// belongs at the API boundary, not here.
func ParseAmount(v any) Money {
	switch x := v.(type) {
	case nil:
		return Money{}
	case float64:
		return NewMoney(x)
	case float32:
		return NewMoney(float64(x))
	case int:
		return NewMoney(float64(x))
	case int64:
		return NewMoney(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Money{}
		}
		return NewMoney(f)
	case string:
		m, err := ParseMoney(x)
		if err != nil {
			return Money{}
		}
		return m
	default:
		return Money{}
	}
}

// Arithmetic. Each operation re-rounds to cents.
func (m Money) Add(o Money) Money { return Money{value: m.value.Add(o.value).Round(2)} }
func (m Money) Sub(o Money) Money { return Money{value: m.value.Sub(o.value).Round(2)} }
func (m Money) Neg() Money        { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money        { return Money{value: m.value.Abs()} }

// Round2 re-applies cent rounding. Idempotent.
func (m Money) Round2() Money { return Money{value: m.value.Round(2)} }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

// ClampZero returns max(0, m).
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return Money{}
	}
	return m
}

// Comparison
func (m Money) IsZero() bool                     { return m.value.IsZero() }
func (m Money) IsPositive() bool                 { return m.value.IsPositive() }
func (m Money) IsNegative() bool                 { return m.value.IsNegative() }
func (m Money) Equal(o Money) bool               { return m.value.Equal(o.value) }
func (m Money) GreaterThan(o Money) bool         { return m.value.GreaterThan(o.value) }
func (m Money) GreaterThanOrEqual(o Money) bool  { return m.value.GreaterThanOrEqual(o.value) }
func (m Money) LessThan(o Money) bool            { return m.value.LessThan(o.value) }

// Conversion
func (m Money) Decimal() decimal.Decimal { return m.value }
func (m Money) Float64() float64 {
	f, _ := m.value.Float64()
	return f
}

// String renders with exactly two decimals ("12.50", "-3.00").
func (m Money) String() string { return m.value.StringFixed(2) }

// MarshalJSON renders Money as a plain JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.StringFixed(2)), nil
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*m = Money{}
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return err
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
