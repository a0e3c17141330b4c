// Package fee models commission fee structures and resolves which structure
// applies to an opportunity.
package fee

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/pipeline-engine/internal/domain/money"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// ScopeKind identifies the level at which a fee structure applies.
type ScopeKind string

const (
	ScopeGlobal  ScopeKind = "global"
	ScopeCountry ScopeKind = "country"
	ScopeSector  ScopeKind = "sector"
	ScopeProject ScopeKind = "project"
)

// Scope is the applicability of a fee structure.  Code carries the country
// code, sector code or project ID; it is empty for the global scope.
type Scope struct {
	Kind ScopeKind `json:"kind" yaml:"kind"`
	Code string    `json:"code,omitempty" yaml:"code"`
}

func GlobalScope() Scope             { return Scope{Kind: ScopeGlobal} }
func CountryScope(code string) Scope { return Scope{Kind: ScopeCountry, Code: code} }
func SectorScope(code string) Scope  { return Scope{Kind: ScopeSector, Code: code} }
func ProjectScope(id string) Scope   { return Scope{Kind: ScopeProject, Code: id} }

func (s Scope) String() string {
	if s.Code == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.Code
}

// FeeStructure is a named set of marginal tiers with an applicability scope.
type FeeStructure struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	IsDefault     bool      `json:"is_default" yaml:"is_default"`
	Scope         Scope     `json:"scope" yaml:"scope"`
	Tiers         []FeeTier `json:"tiers" yaml:"tiers"`
	EffectiveDate time.Time `json:"effective_date" yaml:"effective_date"`
	Notes         string    `json:"notes,omitempty" yaml:"notes"`
}

// IsGlobalDefault reports whether the structure is the global fallback.
func (s FeeStructure) IsGlobalDefault() bool {
	return s.IsDefault && s.Scope.Kind == ScopeGlobal
}

// SortedTiers returns a copy of the tiers ordered by MinMillions.
func (s FeeStructure) SortedTiers() []FeeTier {
	tiers := make([]FeeTier, len(s.Tiers))
	copy(tiers, s.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinMillions.Cmp(tiers[j].MinMillions) < 0
	})
	return tiers
}

// Validate checks that the sorted tiers are contiguous and non-overlapping,
// that rates and bounds are non-negative, and that only the last tier is
// open-ended.
func (s FeeStructure) Validate() error {
	tiers := s.SortedTiers()
	if len(tiers) == 0 {
		return invalidTiers(s.ID, "structure has no tiers")
	}
	for i, t := range tiers {
		if t.MinMillions.IsNegative() {
			return invalidTiers(s.ID, fmt.Sprintf("tier %q starts below zero", t.Label))
		}
		if t.Rate.IsNegative() {
			return invalidTiers(s.ID, fmt.Sprintf("tier %q has a negative rate", t.Label))
		}
		last := i == len(tiers)-1
		max, bounded := t.MaxMillions.Max()
		if !bounded {
			if !last {
				return invalidTiers(s.ID, fmt.Sprintf("tier %q is open-ended but not last", t.Label))
			}
			continue
		}
		if last {
			return invalidTiers(s.ID, "last tier must be open-ended")
		}
		if max.Cmp(t.MinMillions) <= 0 {
			return invalidTiers(s.ID, fmt.Sprintf("tier %q has max <= min", t.Label))
		}
		next := tiers[i+1].MinMillions
		switch c := max.Cmp(next); {
		case c < 0:
			return invalidTiers(s.ID, fmt.Sprintf("gap between %s and %s", max, next))
		case c > 0:
			return invalidTiers(s.ID, fmt.Sprintf("tier %q overlaps the next tier", t.Label))
		}
	}
	return nil
}

func invalidTiers(id, detail string) error {
	return errors.New(errors.ErrCodeInvalidFeeTiers, "fee tiers are inconsistent").
		WithDetail(fmt.Sprintf("structure %s: %s", id, detail))
}

// ValidateSet validates every structure and checks that exactly one of them is
// the global default.
func ValidateSet(structures []FeeStructure) error {
	defaults := make([]string, 0, 1)
	for _, s := range structures {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.IsGlobalDefault() {
			defaults = append(defaults, s.ID)
		}
	}
	if len(defaults) != 1 {
		return errors.New(errors.ErrCodeAmbiguousDefault,
			"exactly one global default fee structure is required").
			WithDetail(fmt.Sprintf("found %d [%s]", len(defaults), strings.Join(defaults, ", ")))
	}
	return nil
}

// DefaultStructureID is the ID of the built-in global default structure.
const DefaultStructureID = "asch-default"

// DefaultFeeStructure returns the built-in global default:
// 0–40M at 3%, 40–60M at 2%, above 60M at 1.25%.
func DefaultFeeStructure() FeeStructure {
	m := func(v int64) money.Millions { return money.NewMillions(decimal.NewFromInt(v)) }
	return FeeStructure{
		ID:        DefaultStructureID,
		Name:      "ASCH Default",
		IsDefault: true,
		Scope:     GlobalScope(),
		Tiers: []FeeTier{
			{Label: "0-40M", MinMillions: m(0), MaxMillions: Bounded(m(40)), Rate: decimal.RequireFromString("0.03")},
			{Label: "40-60M", MinMillions: m(40), MaxMillions: Bounded(m(60)), Rate: decimal.RequireFromString("0.02")},
			{Label: "60M+", MinMillions: m(60), MaxMillions: Unbounded(), Rate: decimal.RequireFromString("0.0125")},
		},
	}
}

//Personal.AI order the ending
