package fee

import (
	"strings"

	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// Level records which rule selected a fee structure.
type Level string

const (
	LevelProject Level = "project"
	LevelCountry Level = "country"
	LevelSector  Level = "sector"
	LevelDefault Level = "default"
)

// Subject carries the opportunity attributes that drive resolution.
type Subject struct {
	OpportunityID  string
	FeeStructureID string
	Country        string
	Sector         string
}

// Resolution is the structure chosen for a subject and the rule that chose it.
type Resolution struct {
	Structure FeeStructure `json:"structure"`
	Level     Level        `json:"level"`
}

// Resolve picks the fee structure for subject.  Priority is a project
// override by structure ID, then a country-scoped structure, then a
// sector-scoped structure, then the global default; the first match wins.
func Resolve(subject Subject, structures []FeeStructure) (Resolution, error) {
	if subject.FeeStructureID != "" {
		for _, s := range structures {
			if s.ID == subject.FeeStructureID {
				return Resolution{Structure: s, Level: LevelProject}, nil
			}
		}
	}
	if subject.Country != "" {
		for _, s := range structures {
			if s.Scope.Kind == ScopeCountry && strings.EqualFold(s.Scope.Code, subject.Country) {
				return Resolution{Structure: s, Level: LevelCountry}, nil
			}
		}
	}
	if subject.Sector != "" {
		for _, s := range structures {
			if s.Scope.Kind == ScopeSector && strings.EqualFold(s.Scope.Code, subject.Sector) {
				return Resolution{Structure: s, Level: LevelSector}, nil
			}
		}
	}
	for _, s := range structures {
		if s.IsGlobalDefault() {
			return Resolution{Structure: s, Level: LevelDefault}, nil
		}
	}
	return Resolution{}, ErrNoFeeStructure(subject)
}

// ErrNoFeeStructure is returned when no structure matches at any level.
func ErrNoFeeStructure(subject Subject) *errors.AppError {
	detail := "opportunity " + subject.OpportunityID
	if subject.OpportunityID == "" {
		detail = "country=" + subject.Country + " sector=" + subject.Sector
	}
	return errors.New(errors.ErrCodeNoFeeStructure, "no fee structure found").WithDetail(detail)
}

//Personal.AI order the ending
