package pipeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pipeline-engine/internal/domain/fee"
	"github.com/turtacn/pipeline-engine/internal/domain/money"
	"github.com/turtacn/pipeline-engine/internal/domain/withholding"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

func usd(s string) money.USD       { return money.NewUSD(decimal.RequireFromString(s)) }
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func portfolio() []Opportunity {
	return []Opportunity{
		{ID: "o1", Country: "GT", Sector: "energy", ASCHValueUSD: usd("80000000"), ProbabilityOfAward: dec("0.5"), Stage: StageProposal},
		{ID: "o2", Country: "HN", Sector: "water", ASCHValueUSD: usd("40000000"), ProbabilityOfAward: dec("0.25"), Stage: StageWon},
		{ID: "o3", Country: "GT", ASCHValueUSD: usd("500000000"), ProbabilityOfAward: dec("0.9"), Stage: StageLost},
		{ID: "o4", Country: "GT", ASCHValueUSD: usd("100000000"), ProbabilityOfAward: dec("0.9"), Stage: StageDormant},
	}
}

func TestCalculateFees_ExcludesLostAndDormant(t *testing.T) {
	sum, err := CalculateFees(portfolio(), []fee.FeeStructure{fee.DefaultFeeStructure()}, nil, Options{})
	require.NoError(t, err)

	require.Len(t, sum.ByOpportunity, 2)
	for _, item := range sum.ByOpportunity {
		assert.NotContains(t, []string{"o3", "o4"}, item.OpportunityID)
	}
	assert.Equal(t, 2, sum.Excluded)
}

func TestCalculateFees_Weighting(t *testing.T) {
	profiles := []withholding.Profile{{
		JurisdictionCountry: "GT",
		Scenarios:           []withholding.Scenario{{Name: "std", Rate: dec("0.1"), IsDefault: true}},
	}}

	sum, err := CalculateFees(portfolio(), []fee.FeeStructure{fee.DefaultFeeStructure()}, profiles, Options{})
	require.NoError(t, err)

	// 80M -> 1.85, 40M -> 1.2
	assert.True(t, sum.TotalGrossFees.Equal(money.MillionsFromFloat(3.05)), sum.TotalGrossFees.String())
	assert.True(t, sum.TotalWeightedFees.Equal(money.MillionsFromFloat(1.225)), sum.TotalWeightedFees.String())

	expected := money.Millions{}
	for _, item := range sum.ByOpportunity {
		expected = expected.Add(item.Commission.GrossFee.Mul(item.ProbabilityOfAward))
	}
	assert.True(t, expected.Equal(sum.TotalWeightedFees))

	assert.Len(t, sum.ByOpportunity[0].Commission.Withholding, 1)
	assert.Empty(t, sum.ByOpportunity[1].Commission.Withholding)
	assert.Equal(t, fee.LevelDefault, sum.ByOpportunity[0].ResolvedBy)
}

func TestCalculateFees_AbortOnError(t *testing.T) {
	sum, err := CalculateFees(portfolio(), nil, nil, Options{Policy: AbortOnError})
	assert.Nil(t, sum)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoFeeStructure))
	assert.Contains(t, err.Error(), "o1")
}

func TestCalculateFees_SkipAndReport(t *testing.T) {
	mx := fee.DefaultFeeStructure()
	mx.ID, mx.IsDefault, mx.Scope = "gt-only", false, fee.CountryScope("GT")

	opps := portfolio()
	opps = append(opps, Opportunity{ID: "neg", Country: "GT", ASCHValueUSD: usd("-1"), Stage: StageLead})

	sum, err := CalculateFees(opps, []fee.FeeStructure{mx}, nil, Options{Policy: SkipAndReport})
	require.NoError(t, err)

	require.Len(t, sum.ByOpportunity, 1)
	assert.Equal(t, "o1", sum.ByOpportunity[0].OpportunityID)
	assert.Equal(t, fee.LevelCountry, sum.ByOpportunity[0].ResolvedBy)

	require.Len(t, sum.Failures, 2)
	assert.Equal(t, "o2", sum.Failures[0].OpportunityID)
	assert.Equal(t, errors.ErrCodeNoFeeStructure, sum.Failures[0].Code)
	assert.Equal(t, errors.MsgConfigurationIncomplete, sum.Failures[0].Message)
	assert.Equal(t, errors.ErrCodeNegativeDealValue, sum.Failures[1].Code)
	assert.Equal(t, "1.85", sum.TotalGrossFees.String())
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, AbortOnError, p)

	p, err = ParseFailurePolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, SkipAndReport, p)

	_, err = ParseFailurePolicy("retry")
	assert.Error(t, err)
}

func TestOpportunity_DaysSinceLastTouch(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	o := Opportunity{LastTouchAt: now.Add(-72 * time.Hour)}
	assert.Equal(t, 3, o.DaysSinceLastTouch(now))

	o = Opportunity{UpdatedAt: now.Add(-36 * time.Hour)}
	assert.Equal(t, 1, o.DaysSinceLastTouch(now))

	assert.Equal(t, 0, Opportunity{}.DaysSinceLastTouch(now))
	assert.Equal(t, 0, Opportunity{LastTouchAt: now.Add(time.Hour)}.DaysSinceLastTouch(now))
}

func TestParseStage(t *testing.T) {
	s, ok := ParseStage(" Negotiation ")
	require.True(t, ok)
	assert.Equal(t, StageNegotiation, s)
	assert.False(t, s.IsClosed())
	assert.True(t, StageWon.IsClosed())

	_, ok = ParseStage("archived")
	assert.False(t, ok)
}

//Personal.AI order the ending
