package intensity

import "math"

// WeeksPerQuarter is the length of a planning quarter.
const WeeksPerQuarter = 13

// WeeklyTargets are a quarterly plan's per-week activity targets.
type WeeklyTargets struct {
	Touchpoints float64 `json:"touchpoints"`
	Meetings    float64 `json:"meetings"`
	NewContacts float64 `json:"new_contacts"`
	Proposals   float64 `json:"proposals"`
}

// TargetsFromBenchmarks reads weekly targets off the configured benchmarks.
func TargetsFromBenchmarks(b Benchmarks) WeeklyTargets {
	return WeeklyTargets{
		Touchpoints: b.TouchpointsPerWeek,
		Meetings:    b.MeetingsPerWeek,
		NewContacts: b.NewContactsPerWeek,
		Proposals:   b.ProposalsPerWeek,
	}
}

// RequiredRates are the weekly rates needed to finish the quarter on plan.
type RequiredRates struct {
	Touchpoints    int `json:"touchpoints"`
	Meetings       int `json:"meetings"`
	NewContacts    int `json:"new_contacts"`
	Proposals      int `json:"proposals"`
	WeeksRemaining int `json:"weeks_remaining"`
}

// RequiredIntensity spreads the full-quarter totals over weeksRemaining,
// rounding every rate up.  All rates are zero when no weeks remain.
func RequiredIntensity(t WeeklyTargets, weeksRemaining int) RequiredRates {
	if weeksRemaining <= 0 {
		return RequiredRates{}
	}
	per := func(weekly float64) int {
		return int(math.Ceil(weekly * WeeksPerQuarter / float64(weeksRemaining)))
	}
	return RequiredRates{
		Touchpoints:    per(t.Touchpoints),
		Meetings:       per(t.Meetings),
		NewContacts:    per(t.NewContacts),
		Proposals:      per(t.Proposals),
		WeeksRemaining: weeksRemaining,
	}
}

//Personal.AI order the ending
