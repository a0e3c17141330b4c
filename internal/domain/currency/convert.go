package currency

import (
	"github.com/shopspring/decimal"

	"github.com/turtacn/pipeline-engine/internal/domain/money"
)

// RateMap is an immutable lookup from "FROM->TO" to the rate for that pair.
// Callers rebuild it with BuildRateMap whenever the underlying rates change.
type RateMap map[string]decimal.Decimal

// PairKey formats the lookup key for a currency pair.
func PairKey(from, to Code) string {
	return string(from) + "->" + string(to)
}

// BuildRateMap indexes rates by pair.  Later entries overwrite earlier ones.
func BuildRateMap(rates []ExchangeRate) RateMap {
	m := make(RateMap, len(rates))
	for _, r := range rates {
		m[PairKey(r.From, r.To)] = r.Rate
	}
	return m
}

// Lookup returns the rate for from->to.
func (m RateMap) Lookup(from, to Code) (decimal.Decimal, bool) {
	r, ok := m[PairKey(from, to)]
	return r, ok
}

// ConvertToUSD converts amount units of from into US dollars.
func ConvertToUSD(amount decimal.Decimal, from Code, m RateMap) (money.USD, error) {
	if from == USD {
		return money.NewUSD(amount), nil
	}
	rate, ok := m.Lookup(from, USD)
	if !ok {
		return money.USD{}, ErrRateNotFound(from, USD)
	}
	return money.NewUSD(amount.Mul(rate)), nil
}

// ConvertFromUSD converts a dollar amount into units of to.  The to->USD rate
// is used as the divisor.
func ConvertFromUSD(amount money.USD, to Code, m RateMap) (decimal.Decimal, error) {
	if to == USD {
		return amount.Decimal(), nil
	}
	rate, ok := m.Lookup(to, USD)
	if !ok {
		return decimal.Zero, ErrRateNotFound(to, USD)
	}
	if rate.IsZero() {
		return decimal.Zero, ErrDivisionByZero(to, USD)
	}
	return amount.Decimal().Div(rate), nil
}

// Convert converts amount from one currency into another, pivoting through USD.
func Convert(amount decimal.Decimal, from, to Code, m RateMap) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	usd, err := ConvertToUSD(amount, from, m)
	if err != nil {
		return decimal.Zero, err
	}
	return ConvertFromUSD(usd, to, m)
}

//Personal.AI order the ending
