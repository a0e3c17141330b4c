// Package commission computes marginal tiered commission on a deal value.
//
// Tiers work like progressive tax brackets: each tier charges its rate only on
// the part of the deal that falls inside it.  Every result carries an
// independent re-sum of the per-tier fees so that inconsistent tier tables are
// visible to callers.
package commission

import (
	"github.com/shopspring/decimal"

	"github.com/turtacn/pipeline-engine/internal/domain/fee"
	"github.com/turtacn/pipeline-engine/internal/domain/money"
	"github.com/turtacn/pipeline-engine/internal/domain/withholding"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

var (
	// MinTolerance is the absolute floor of the verification tolerance.
	MinTolerance = decimal.New(1, -4)
	// RelativeTolerance scales the tolerance with the gross fee.
	RelativeTolerance = decimal.New(1, -12)
)

// TierBreakdownItem is the contribution of one tier to the gross fee.
type TierBreakdownItem struct {
	Tier               fee.FeeTier    `json:"tier"`
	ApplicableMillions money.Millions `json:"applicable_millions"`
	Fee                money.Millions `json:"fee"`
}

// Verification compares the gross fee with an independent re-sum of the
// breakdown.
type Verification struct {
	SumOfTiers   money.Millions  `json:"sum_of_tiers"`
	MatchesGross bool            `json:"matches_gross"`
	Tolerance    decimal.Decimal `json:"tolerance"`
}

// Result is the full commission computation for one deal.
type Result struct {
	DealMillions  money.Millions       `json:"deal_millions"`
	StructureID   string               `json:"structure_id"`
	GrossFee      money.Millions       `json:"gross_fee"`
	EffectiveRate decimal.Decimal      `json:"effective_rate"`
	TierBreakdown []TierBreakdownItem  `json:"tier_breakdown"`
	Withholding   []withholding.Result `json:"withholding"`
	Verification  Verification         `json:"verification"`
}

// Tolerance returns max(1e-4, 1e-12 × |gross|).
func Tolerance(gross money.Millions) decimal.Decimal {
	return decimal.Max(MinTolerance, gross.Decimal().Abs().Mul(RelativeTolerance))
}

// ErrNegativeDeal is returned for deal values below zero.
func ErrNegativeDeal(deal money.Millions) *errors.AppError {
	return errors.New(errors.ErrCodeNegativeDealValue, "deal value cannot be negative").
		WithDetail(deal.String() + "M USD")
}

// Calculate computes commission on deal against structure.  When profile is
// non-nil one withholding result per scenario is attached; otherwise the
// withholding slice is empty.
func Calculate(deal money.Millions, structure fee.FeeStructure, profile *withholding.Profile) (*Result, error) {
	if deal.IsNegative() {
		return nil, ErrNegativeDeal(deal)
	}

	var (
		gross     money.Millions
		breakdown = make([]TierBreakdownItem, 0, len(structure.Tiers))
	)
	for _, tier := range structure.SortedTiers() {
		span := tier.Span(deal)
		if !span.IsPositive() {
			continue
		}
		tierFee := span.Mul(tier.Rate)
		gross = gross.Add(tierFee)
		breakdown = append(breakdown, TierBreakdownItem{
			Tier:               tier,
			ApplicableMillions: span,
			Fee:                tierFee,
		})
	}

	effective := decimal.Zero
	if deal.IsPositive() {
		effective = gross.Decimal().Div(deal.Decimal())
	}

	res := &Result{
		DealMillions:  deal,
		StructureID:   structure.ID,
		GrossFee:      gross,
		EffectiveRate: effective,
		TierBreakdown: breakdown,
		Withholding:   []withholding.Result{},
		Verification:  Verify(gross, breakdown),
	}
	if profile != nil {
		res.Withholding = withholding.Calculate(gross, *profile)
	}
	return res, nil
}

// Verify re-sums the breakdown fees and compares the total with gross.
func Verify(gross money.Millions, breakdown []TierBreakdownItem) Verification {
	var sum money.Millions
	for _, item := range breakdown {
		sum = sum.Add(item.Fee)
	}
	tol := Tolerance(gross)
	return Verification{
		SumOfTiers:   sum,
		MatchesGross: sum.Sub(gross).Abs().Decimal().LessThan(tol),
		Tolerance:    tol,
	}
}

//Personal.AI order the ending
