package fee

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/turtacn/pipeline-engine/internal/domain/money"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// TierBound is the upper edge of a fee tier: either a finite amount in USD
// millions or open-ended.  The zero value is open-ended.
type TierBound struct {
	max     money.Millions
	bounded bool
}

// Bounded returns a finite upper bound.
func Bounded(max money.Millions) TierBound {
	return TierBound{max: max, bounded: true}
}

// Unbounded returns an open-ended upper bound.
func Unbounded() TierBound {
	return TierBound{}
}

// IsUnbounded reports whether the bound is open-ended.
func (b TierBound) IsUnbounded() bool { return !b.bounded }

// Max returns the finite bound and true, or false for an open-ended bound.
func (b TierBound) Max() (money.Millions, bool) {
	return b.max, b.bounded
}

// Cap returns the bound clamped for a deal: the deal itself when open-ended.
func (b TierBound) Cap(deal money.Millions) money.Millions {
	if !b.bounded {
		return deal
	}
	return b.max
}

func (b TierBound) String() string {
	if !b.bounded {
		return "inf"
	}
	return b.max.String()
}

// MarshalJSON writes finite bounds as numbers and open-ended ones as null.
func (b TierBound) MarshalJSON() ([]byte, error) {
	if !b.bounded {
		return []byte("null"), nil
	}
	return b.max.MarshalJSON()
}

func (b *TierBound) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = Unbounded()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return b.UnmarshalText([]byte(s))
	}
	return b.UnmarshalText(data)
}

func (b TierBound) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText accepts a decimal number, or "inf", ".inf", "∞" or an
// empty string for an open-ended bound.
func (b *TierBound) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	switch s {
	case "", "inf", "+inf", ".inf", "+.inf", "infinity", "∞", "~", "null":
		*b = Unbounded()
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidFeeTiers, "invalid tier bound").WithDetail(string(text)).WithCause(err)
	}
	*b = Bounded(money.NewMillions(d))
	return nil
}

// FeeTier is one marginal bracket of a fee structure, expressed in USD
// millions.  Min is inclusive, Max exclusive.
type FeeTier struct {
	Label       string          `json:"label" yaml:"label"`
	MinMillions money.Millions  `json:"min_millions" yaml:"min_millions"`
	MaxMillions TierBound       `json:"max_millions" yaml:"max_millions"`
	Rate        decimal.Decimal `json:"rate" yaml:"rate"`
}

// Span returns the part of deal that falls inside this tier, never negative.
func (t FeeTier) Span(deal money.Millions) money.Millions {
	upper := money.MinMillions(deal, t.MaxMillions.Cap(deal))
	return money.MaxMillions(money.Millions{}, upper.Sub(t.MinMillions))
}

//Personal.AI order the ending
