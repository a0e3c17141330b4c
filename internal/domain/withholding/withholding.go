// Package withholding applies jurisdiction withholding scenarios to a gross
// commission fee.
package withholding

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/turtacn/pipeline-engine/internal/domain/money"
)

// Scenario is one named withholding rate in a jurisdiction.  Rate is a
// fraction in [0,1].
type Scenario struct {
	Name        string          `json:"name" yaml:"name"`
	Rate        decimal.Decimal `json:"rate" yaml:"rate"`
	Description string          `json:"description,omitempty" yaml:"description"`
	IsDefault   bool            `json:"is_default" yaml:"is_default"`
}

// Profile groups the scenarios of one jurisdiction.
type Profile struct {
	JurisdictionCountry string     `json:"jurisdiction_country" yaml:"jurisdiction_country"`
	Name                string     `json:"name" yaml:"name"`
	Scenarios           []Scenario `json:"scenarios" yaml:"scenarios"`
}

// Result is the outcome of one scenario applied to a gross fee.
type Result struct {
	Scenario          Scenario       `json:"scenario"`
	GrossFee          money.Millions `json:"gross_fee"`
	WithholdingAmount money.Millions `json:"withholding_amount"`
	NetFee            money.Millions `json:"net_fee"`
}

// Calculate returns one result per scenario of profile, in scenario order.
// WithholdingAmount + NetFee always equals GrossFee exactly.
func Calculate(grossFee money.Millions, profile Profile) []Result {
	results := make([]Result, 0, len(profile.Scenarios))
	for _, sc := range profile.Scenarios {
		withheld := grossFee.Mul(sc.Rate)
		results = append(results, Result{
			Scenario:          sc,
			GrossFee:          grossFee,
			WithholdingAmount: withheld,
			NetFee:            grossFee.Sub(withheld),
		})
	}
	return results
}

// ResolveProfile returns the first profile for country.  The boolean is false
// when none applies, which means no withholding rather than an error.
func ResolveProfile(country string, profiles []Profile) (Profile, bool) {
	if country == "" {
		return Profile{}, false
	}
	for _, p := range profiles {
		if strings.EqualFold(p.JurisdictionCountry, country) {
			return p, true
		}
	}
	return Profile{}, false
}

// DefaultScenario returns the scenario flagged as default, else the first one.
// The boolean is false only for a profile without scenarios.
func DefaultScenario(profile Profile) (Scenario, bool) {
	for _, sc := range profile.Scenarios {
		if sc.IsDefault {
			return sc, true
		}
	}
	if len(profile.Scenarios) == 0 {
		return Scenario{}, false
	}
	return profile.Scenarios[0], true
}

// DefaultNet picks the default scenario's result out of results.
func DefaultNet(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Scenario.IsDefault {
			return r, true
		}
	}
	if len(results) == 0 {
		return Result{}, false
	}
	return results[0], true
}

//Personal.AI order the ending
