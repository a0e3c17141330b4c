// Package currency converts amounts between currencies through a USD pivot
// using a caller-supplied snapshot of exchange rates.
package currency

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// Code is an ISO 4217 currency code.
type Code string

const (
	USD Code = "USD"
	CAD Code = "CAD"
	MXN Code = "MXN"
	GTQ Code = "GTQ"
	BZD Code = "BZD"
	HNL Code = "HNL"
	NIO Code = "NIO"
	CRC Code = "CRC"
	PAB Code = "PAB"
	DOP Code = "DOP"
	HTG Code = "HTG"
	JMD Code = "JMD"
	TTD Code = "TTD"
	BSD Code = "BSD"
	BBD Code = "BBD"
	XCD Code = "XCD"
	CUP Code = "CUP"
	COP Code = "COP"
	VES Code = "VES"
	PEN Code = "PEN"
	BOB Code = "BOB"
	BRL Code = "BRL"
	PYG Code = "PYG"
	UYU Code = "UYU"
	ARS Code = "ARS"
	CLP Code = "CLP"
	GYD Code = "GYD"
	SRD Code = "SRD"
	EUR Code = "EUR"
	GBP Code = "GBP"
	CHF Code = "CHF"
	SEK Code = "SEK"
	NOK Code = "NOK"
	DKK Code = "DKK"
	ISK Code = "ISK"
	PLN Code = "PLN"
	CZK Code = "CZK"
	HUF Code = "HUF"
	RON Code = "RON"
	BGN Code = "BGN"
	RSD Code = "RSD"
)

var supported = map[Code]struct{}{
	USD: {}, CAD: {}, MXN: {}, GTQ: {}, BZD: {}, HNL: {}, NIO: {}, CRC: {}, PAB: {},
	DOP: {}, HTG: {}, JMD: {}, TTD: {}, BSD: {}, BBD: {}, XCD: {}, CUP: {}, COP: {},
	VES: {}, PEN: {}, BOB: {}, BRL: {}, PYG: {}, UYU: {}, ARS: {}, CLP: {}, GYD: {},
	SRD: {}, EUR: {}, GBP: {}, CHF: {}, SEK: {}, NOK: {}, DKK: {}, ISK: {}, PLN: {},
	CZK: {}, HUF: {}, RON: {}, BGN: {}, RSD: {},
}

// IsSupported reports whether c is one of the engine's known currencies.
func (c Code) IsSupported() bool {
	_, ok := supported[c]
	return ok
}

func (c Code) String() string { return string(c) }

// ParseCode normalizes s (trim, upper-case) and rejects unknown codes.
func ParseCode(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsSupported() {
		return "", errors.New(errors.ErrCodeUnsupportedCurrency, "unsupported currency").WithDetail(s)
	}
	return c, nil
}

// Supported lists every known currency code in lexical order.
func Supported() []Code {
	out := make([]Code, 0, len(supported))
	for c := range supported {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ExchangeRate states that one unit of From is worth Rate units of To.
type ExchangeRate struct {
	From      Code            `json:"from" yaml:"from"`
	To        Code            `json:"to" yaml:"to"`
	Rate      decimal.Decimal `json:"rate" yaml:"rate"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
	Source    string          `json:"source,omitempty" yaml:"source"`
}

// ErrRateNotFound is returned when the rate map has no entry for a pair.
func ErrRateNotFound(from, to Code) *errors.AppError {
	return errors.New(errors.ErrCodeRateNotFound, "exchange rate not found").WithDetail(PairKey(from, to))
}

// ErrDivisionByZero is returned when a zero rate would be used as a divisor.
func ErrDivisionByZero(from, to Code) *errors.AppError {
	return errors.New(errors.ErrCodeDivisionByZero, "exchange rate is zero").WithDetail(PairKey(from, to))
}

//Personal.AI order the ending
