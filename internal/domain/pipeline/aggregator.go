// Package pipeline aggregates forecast commission fees across a portfolio of
// opportunities.
package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/turtacn/pipeline-engine/internal/domain/commission"
	"github.com/turtacn/pipeline-engine/internal/domain/fee"
	"github.com/turtacn/pipeline-engine/internal/domain/money"
	"github.com/turtacn/pipeline-engine/internal/domain/withholding"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// FailurePolicy controls what happens when one opportunity cannot be priced.
type FailurePolicy string

const (
	// AbortOnError stops the aggregation at the first failing opportunity.
	AbortOnError FailurePolicy = "abort"
	// SkipAndReport leaves failing opportunities out of the totals and lists
	// them in Summary.Failures.
	SkipAndReport FailurePolicy = "skip"
)

// ParseFailurePolicy maps a config string to a policy; empty means abort.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", AbortOnError:
		return AbortOnError, nil
	case SkipAndReport:
		return SkipAndReport, nil
	}
	return "", errors.InvalidParam(fmt.Sprintf("unknown failure policy %q", s))
}

// Options tunes CalculateFees.
type Options struct {
	Policy FailurePolicy
}

// OpportunityFee is the priced forecast for one opportunity.
type OpportunityFee struct {
	OpportunityID      string             `json:"opportunity_id"`
	Name               string             `json:"name"`
	Stage              Stage              `json:"stage"`
	StructureID        string             `json:"structure_id"`
	ResolvedBy         fee.Level          `json:"resolved_by"`
	Commission         *commission.Result `json:"commission"`
	ProbabilityOfAward decimal.Decimal    `json:"probability_of_award"`
	WeightedGross      money.Millions     `json:"weighted_gross"`
}

// Failure records an opportunity that could not be priced.
type Failure struct {
	OpportunityID string           `json:"opportunity_id"`
	Code          errors.ErrorCode `json:"code"`
	Message       string           `json:"message"`
	Err           error            `json:"-"`
}

// Summary holds portfolio totals in USD millions.
type Summary struct {
	TotalGrossFees    money.Millions   `json:"total_gross_fees"`
	TotalWeightedFees money.Millions   `json:"total_weighted_fees"`
	ByOpportunity     []OpportunityFee `json:"by_opportunity"`
	Excluded          int              `json:"excluded"`
	Failures          []Failure        `json:"failures,omitempty"`
}

// CalculateFees prices every opportunity not in a lost or dormant stage and
// sums gross and probability-weighted fees.
func CalculateFees(opps []Opportunity, structures []fee.FeeStructure, profiles []withholding.Profile, opts Options) (*Summary, error) {
	sum := &Summary{ByOpportunity: make([]OpportunityFee, 0, len(opps))}

	for _, opp := range opps {
		if opp.Stage.ExcludedFromForecast() {
			sum.Excluded++
			continue
		}

		item, err := priceOpportunity(opp, structures, profiles)
		if err != nil {
			if opts.Policy != SkipAndReport {
				return nil, errors.Wrap(err, errors.CodeUnknown, "pipeline aggregation aborted").
					WithDetail("opportunity " + opp.ID)
			}
			sum.Failures = append(sum.Failures, Failure{
				OpportunityID: opp.ID,
				Code:          errors.GetCode(err),
				Message:       errors.UserMessage(err),
				Err:           err,
			})
			continue
		}

		sum.ByOpportunity = append(sum.ByOpportunity, item)
		sum.TotalGrossFees = sum.TotalGrossFees.Add(item.Commission.GrossFee)
		sum.TotalWeightedFees = sum.TotalWeightedFees.Add(item.WeightedGross)
	}
	return sum, nil
}

func priceOpportunity(opp Opportunity, structures []fee.FeeStructure, profiles []withholding.Profile) (OpportunityFee, error) {
	res, err := fee.Resolve(opp.FeeSubject(), structures)
	if err != nil {
		return OpportunityFee{}, err
	}

	var profile *withholding.Profile
	if p, ok := withholding.ResolveProfile(opp.Country, profiles); ok {
		profile = &p
	}

	result, err := commission.Calculate(opp.ASCHValueUSD.Millions(), res.Structure, profile)
	if err != nil {
		return OpportunityFee{}, err
	}

	return OpportunityFee{
		OpportunityID:      opp.ID,
		Name:               opp.Name,
		Stage:              opp.Stage,
		StructureID:        res.Structure.ID,
		ResolvedBy:         res.Level,
		Commission:         result,
		ProbabilityOfAward: opp.ProbabilityOfAward,
		WeightedGross:      result.GrossFee.Mul(opp.ProbabilityOfAward),
	}, nil
}

//Personal.AI order the ending
