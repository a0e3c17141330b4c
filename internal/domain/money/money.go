// Package money defines the monetary value objects shared by the engine.
//
// Two units exist and they are deliberately distinct types: USD holds raw
// dollar amounts as produced by currency conversion, Millions holds USD
// millions as consumed by fee-tier arithmetic.  The only way across the
// boundary is USD.Millions and Millions.USD.
package money

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

var million = decimal.NewFromInt(1_000_000)

// USD is an amount in whole US dollars.
type USD struct {
	d decimal.Decimal
}

// Millions is an amount in millions of US dollars.
type Millions struct {
	d decimal.Decimal
}

// NewUSD wraps a decimal dollar amount.
func NewUSD(d decimal.Decimal) USD { return USD{d: d} }

// USDFromFloat builds a USD amount from a float64.
func USDFromFloat(f float64) USD { return USD{d: decimal.NewFromFloat(f)} }

// ParseUSD parses a decimal string such as "2500000.50".
func ParseUSD(s string) (USD, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return USD{}, fmt.Errorf("money: parse usd %q: %w", s, err)
	}
	return USD{d: d}, nil
}

// NewMillions wraps a decimal amount already expressed in USD millions.
func NewMillions(d decimal.Decimal) Millions { return Millions{d: d} }

// MillionsFromFloat builds a Millions amount from a float64.
func MillionsFromFloat(f float64) Millions { return Millions{d: decimal.NewFromFloat(f)} }

// ParseMillions parses a decimal string such as "42.5".
func ParseMillions(s string) (Millions, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Millions{}, fmt.Errorf("money: parse millions %q: %w", s, err)
	}
	return Millions{d: d}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// USD
// ─────────────────────────────────────────────────────────────────────────────

func (u USD) Decimal() decimal.Decimal  { return u.d }
func (u USD) Millions() Millions        { return Millions{d: u.d.Div(million)} }
func (u USD) Add(o USD) USD             { return USD{d: u.d.Add(o.d)} }
func (u USD) Sub(o USD) USD             { return USD{d: u.d.Sub(o.d)} }
func (u USD) Mul(f decimal.Decimal) USD { return USD{d: u.d.Mul(f)} }
func (u USD) IsZero() bool              { return u.d.IsZero() }
func (u USD) IsNegative() bool          { return u.d.IsNegative() }
func (u USD) Cmp(o USD) int             { return u.d.Cmp(o.d) }
func (u USD) Equal(o USD) bool          { return u.d.Equal(o.d) }
func (u USD) String() string            { return u.d.String() }
func (u USD) Float64() float64 {
	f, _ := u.d.Float64()
	return f
}
func (u USD) MarshalJSON() ([]byte, error) { return []byte(u.d.String()), nil }
func (u USD) MarshalText() ([]byte, error) { return []byte(u.d.String()), nil }

func (u *USD) UnmarshalJSON(b []byte) error {
	d, err := unmarshalDecimalJSON(b)
	if err != nil {
		return err
	}
	u.d = d
	return nil
}

func (u *USD) UnmarshalText(b []byte) error {
	d, err := decimal.NewFromString(string(bytes.TrimSpace(b)))
	if err != nil {
		return fmt.Errorf("money: usd: %w", err)
	}
	u.d = d
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Millions
// ─────────────────────────────────────────────────────────────────────────────

func (m Millions) Decimal() decimal.Decimal       { return m.d }
func (m Millions) USD() USD                       { return USD{d: m.d.Mul(million)} }
func (m Millions) Add(o Millions) Millions        { return Millions{d: m.d.Add(o.d)} }
func (m Millions) Sub(o Millions) Millions        { return Millions{d: m.d.Sub(o.d)} }
func (m Millions) Mul(f decimal.Decimal) Millions { return Millions{d: m.d.Mul(f)} }
func (m Millions) Abs() Millions                  { return Millions{d: m.d.Abs()} }
func (m Millions) IsZero() bool                   { return m.d.IsZero() }
func (m Millions) IsNegative() bool               { return m.d.IsNegative() }
func (m Millions) IsPositive() bool               { return m.d.IsPositive() }
func (m Millions) Cmp(o Millions) int             { return m.d.Cmp(o.d) }
func (m Millions) Equal(o Millions) bool          { return m.d.Equal(o.d) }
func (m Millions) String() string                 { return m.d.String() }
func (m Millions) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}
func (m Millions) MarshalJSON() ([]byte, error) { return []byte(m.d.String()), nil }
func (m Millions) MarshalText() ([]byte, error) { return []byte(m.d.String()), nil }

func (m *Millions) UnmarshalJSON(b []byte) error {
	d, err := unmarshalDecimalJSON(b)
	if err != nil {
		return err
	}
	m.d = d
	return nil
}

func (m *Millions) UnmarshalText(b []byte) error {
	d, err := decimal.NewFromString(string(bytes.TrimSpace(b)))
	if err != nil {
		return fmt.Errorf("money: millions: %w", err)
	}
	m.d = d
	return nil
}

// MinMillions returns the smaller of a and b.
func MinMillions(a, b Millions) Millions {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// MaxMillions returns the larger of a and b.
func MaxMillions(a, b Millions) Millions {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// SumMillions adds up all values; an empty input sums to zero.
func SumMillions(values ...Millions) Millions {
	total := Millions{}
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// unmarshalDecimalJSON accepts both bare numbers and quoted numeric strings.
func unmarshalDecimalJSON(b []byte) (decimal.Decimal, error) {
	if bytes.Equal(b, []byte("null")) {
		return decimal.Zero, nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return decimal.Zero, fmt.Errorf("money: %w", err)
	}
	return d, nil
}

//Personal.AI order the ending
