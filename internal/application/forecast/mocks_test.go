package forecast

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/pipeline-engine/internal/domain/currency"
	"github.com/turtacn/pipeline-engine/internal/domain/fee"
	"github.com/turtacn/pipeline-engine/internal/domain/intensity"
	"github.com/turtacn/pipeline-engine/internal/domain/money"
	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
	"github.com/turtacn/pipeline-engine/internal/domain/withholding"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/referencedata"
)

var testNow = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Snapshot(ctx context.Context) (*referencedata.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*referencedata.Snapshot)
	return snap, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context) (intensity.Config, error) {
	args := m.Called(ctx)
	return args.Get(0).(intensity.Config), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, cfg intensity.Config) error {
	return m.Called(ctx, cfg).Error(0)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func millions(s string) money.Millions { return money.NewMillions(dec(s)) }

func colombiaFlat() fee.FeeStructure {
	return fee.FeeStructure{
		ID:    "colombia-flat",
		Name:  "Colombia flat",
		Scope: fee.CountryScope("CO"),
		Tiers: []fee.FeeTier{{Label: "all", MinMillions: millions("0"), MaxMillions: fee.Unbounded(), Rate: dec("0.025")}},
	}
}

func testSnapshot() *referencedata.Snapshot {
	return &referencedata.Snapshot{
		FeeStructures: []fee.FeeStructure{fee.DefaultFeeStructure(), colombiaFlat()},
		WithholdingProfiles: []withholding.Profile{{
			JurisdictionCountry: "CO",
			Name:                "Colombia",
			Scenarios: []withholding.Scenario{
				{Name: "standard", Rate: dec("0.2"), IsDefault: true},
				{Name: "treaty", Rate: dec("0.1")},
			},
		}},
		ExchangeRates: []currency.ExchangeRate{
			{From: currency.COP, To: currency.USD, Rate: dec("0.00025")},
		},
		Opportunities: []referencedata.OpportunityRecord{
			{
				ID: "opp-1", Name: "Port expansion", Country: "PE", Sector: "infrastructure",
				ASCHValue: dec("50000000"), Currency: currency.USD, ProbabilityOfAward: dec("0.5"),
				Stage: pipeline.StageProposal, UpdatedAt: testNow.AddDate(0, 0, -25), LastTouchAt: testNow.AddDate(0, 0, -14),
			},
			{
				ID: "opp-2", Name: "Bogota metro", Country: "CO", Sector: "transport",
				ASCHValue: dec("200000000000"), Currency: currency.COP, ProbabilityOfAward: dec("0.4"),
				Stage: pipeline.StageNegotiation, UpdatedAt: testNow.AddDate(0, 0, -75),
			},
			{
				ID: "opp-3", Name: "Lost tender", Country: "CL",
				ASCHValue: dec("10000000"), Currency: currency.USD,
				Stage: pipeline.StageLost, UpdatedAt: testNow.AddDate(0, -9, 0),
			},
			{
				ID: "opp-4", Name: "Madrid office", Country: "ES",
				ASCHValue: dec("1000000"), Currency: currency.EUR, ProbabilityOfAward: dec("0.1"),
				Stage: pipeline.StageQualified, UpdatedAt: testNow.AddDate(0, 0, -5),
			},
		},
		Source: "test",
	}
}

func staticSource() ReferenceSource {
	return referencedata.NewStatic(testSnapshot())
}

//Personal.AI order the ending
