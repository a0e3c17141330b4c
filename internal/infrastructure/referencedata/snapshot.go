// Package referencedata loads the engine's reference data (fee structures,
// withholding profiles, exchange rates, opportunities and the intensity
// configuration) from a YAML snapshot file and keeps it current.
package referencedata

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/pipeline-engine/internal/domain/currency"
	"github.com/turtacn/pipeline-engine/internal/domain/fee"
	"github.com/turtacn/pipeline-engine/internal/domain/intensity"
	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
	"github.com/turtacn/pipeline-engine/internal/domain/withholding"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// OpportunityRecord is an opportunity as stored in the snapshot.  The ASCH
// value may be quoted in any supported currency.
type OpportunityRecord struct {
	ID                 string          `yaml:"id" json:"id"`
	Name               string          `yaml:"name" json:"name"`
	Country            string          `yaml:"country" json:"country"`
	Sector             string          `yaml:"sector" json:"sector"`
	FeeStructureID     string          `yaml:"fee_structure_id" json:"fee_structure_id,omitempty"`
	ASCHValue          decimal.Decimal `yaml:"asch_value" json:"asch_value"`
	Currency           currency.Code   `yaml:"currency" json:"currency"`
	ProbabilityOfAward decimal.Decimal `yaml:"probability_of_award" json:"probability_of_award"`
	Stage              pipeline.Stage  `yaml:"stage" json:"stage"`
	UpdatedAt          time.Time       `yaml:"updated_at" json:"updated_at"`
	LastTouchAt        time.Time       `yaml:"last_touch_at" json:"last_touch_at"`
}

// Snapshot is one consistent revision of the reference data.
type Snapshot struct {
	FeeStructures       []fee.FeeStructure      `yaml:"fee_structures" json:"fee_structures"`
	WithholdingProfiles []withholding.Profile   `yaml:"withholding_profiles" json:"withholding_profiles"`
	ExchangeRates       []currency.ExchangeRate `yaml:"exchange_rates" json:"exchange_rates"`
	Opportunities       []OpportunityRecord     `yaml:"opportunities" json:"opportunities"`
	Intensity           *intensity.Config       `yaml:"intensity" json:"intensity,omitempty"`

	// Source is the file the snapshot was read from; LoadedAt when.
	Source   string    `yaml:"-" json:"source"`
	LoadedAt time.Time `yaml:"-" json:"loaded_at"`

	rates currency.RateMap
}

// Rates returns the lookup table for the snapshot's exchange rates.  It is
// built once per revision; callers must not modify it.
func (s *Snapshot) Rates() currency.RateMap {
	if s.rates == nil {
		return currency.BuildRateMap(s.ExchangeRates)
	}
	return s.rates
}

// IntensityConfig returns the snapshot's intensity configuration, or fallback
// when the snapshot carries none.
func (s *Snapshot) IntensityConfig(fallback intensity.Config) intensity.Config {
	if s.Intensity == nil {
		return fallback.Clone()
	}
	return s.Intensity.Clone()
}

// Validate checks the fee structure set, currency codes, stages,
// probabilities and the intensity configuration.
func (s *Snapshot) Validate() error {
	if err := fee.ValidateSet(s.FeeStructures); err != nil {
		return err
	}
	for _, r := range s.ExchangeRates {
		if !r.From.IsSupported() || !r.To.IsSupported() {
			return errors.New(errors.ErrCodeUnsupportedCurrency, "unsupported currency in exchange rates").
				WithDetail(currency.PairKey(r.From, r.To))
		}
		if r.Rate.IsNegative() {
			return errors.New(errors.ErrCodeValidation, "negative exchange rate").
				WithDetail(currency.PairKey(r.From, r.To))
		}
	}
	for _, o := range s.Opportunities {
		if o.ID == "" {
			return errors.New(errors.ErrCodeValidation, "opportunity without id")
		}
		if _, ok := pipeline.ParseStage(string(o.Stage)); !ok {
			return errors.New(errors.ErrCodeValidation, "unknown opportunity stage").
				WithDetail(fmt.Sprintf("%s: %q", o.ID, o.Stage))
		}
		if o.Currency != "" && !o.Currency.IsSupported() {
			return errors.New(errors.ErrCodeUnsupportedCurrency, "unsupported opportunity currency").
				WithDetail(fmt.Sprintf("%s: %s", o.ID, o.Currency))
		}
		if o.ProbabilityOfAward.IsNegative() || o.ProbabilityOfAward.GreaterThan(decimal.NewFromInt(1)) {
			return errors.New(errors.ErrCodeValidation, "probability of award outside [0,1]").WithDetail(o.ID)
		}
	}
	if s.Intensity != nil {
		if err := s.Intensity.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Parse decodes and validates a YAML snapshot.  Opportunities without a
// currency are taken to be quoted in USD.
func Parse(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode reference data")
	}
	for i := range snap.Opportunities {
		if snap.Opportunities[i].Currency == "" {
			snap.Opportunities[i].Currency = currency.USD
		}
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	snap.rates = currency.BuildRateMap(snap.ExchangeRates)
	return &snap, nil
}

// LoadFile reads and parses the snapshot at path.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "failed to read reference data").WithDetail(path)
	}
	snap, err := Parse(data)
	if err != nil {
		return nil, err
	}
	snap.Source = path
	snap.LoadedAt = time.Now().UTC()
	return snap, nil
}

// Default returns a snapshot holding only the built-in global default fee
// structure.
func Default() *Snapshot {
	return &Snapshot{
		FeeStructures: []fee.FeeStructure{fee.DefaultFeeStructure()},
		Source:        "builtin",
		LoadedAt:      time.Now().UTC(),
		rates:         currency.RateMap{},
	}
}

//Personal.AI order the ending
