package pipeline

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/pipeline-engine/internal/domain/fee"
	"github.com/turtacn/pipeline-engine/internal/domain/money"
)

// Stage is the sales stage of an opportunity.
type Stage string

const (
	StageLead        Stage = "lead"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageWon         Stage = "won"
	StageLost        Stage = "lost"
	StageDormant     Stage = "dormant"
)

// ParseStage normalizes s and reports whether it names a known stage.
func ParseStage(s string) (Stage, bool) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StageLead, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost, StageDormant:
		return st, true
	}
	return "", false
}

// ExcludedFromForecast reports whether opportunities in this stage are left
// out of fee aggregation.
func (s Stage) ExcludedFromForecast() bool {
	return s == StageLost || s == StageDormant
}

// IsClosed reports whether the stage is won or lost.
func (s Stage) IsClosed() bool {
	return s == StageWon || s == StageLost
}

// Opportunity is the engine-relevant subset of a CRM opportunity.
type Opportunity struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Country            string          `json:"country"`
	Sector             string          `json:"sector"`
	FeeStructureID     string          `json:"fee_structure_id,omitempty"`
	ASCHValueUSD       money.USD       `json:"asch_value_usd"`
	ProbabilityOfAward decimal.Decimal `json:"probability_of_award"`
	Stage              Stage           `json:"stage"`
	UpdatedAt          time.Time       `json:"updated_at"`
	LastTouchAt        time.Time       `json:"last_touch_at,omitempty"`
}

// FeeSubject returns the attributes used for fee structure resolution.
func (o Opportunity) FeeSubject() fee.Subject {
	return fee.Subject{
		OpportunityID:  o.ID,
		FeeStructureID: o.FeeStructureID,
		Country:        o.Country,
		Sector:         o.Sector,
	}
}

// DaysSinceLastTouch counts whole days between the last touchpoint and now.
// UpdatedAt stands in when no touchpoint was recorded.
func (o Opportunity) DaysSinceLastTouch(now time.Time) int {
	last := o.LastTouchAt
	if last.IsZero() {
		last = o.UpdatedAt
	}
	if last.IsZero() || !now.After(last) {
		return 0
	}
	return int(now.Sub(last).Hours() / 24)
}

//Personal.AI order the ending
