package intensity

import (
	"math"
	"time"
)

// MinClosedDeals is the number of closed deals calibration needs.
const MinClosedDeals = 3

const (
	minHighQualityPctTarget = 0.2
	maxHighQualityPctTarget = 0.8
	minNewContactsPerWeek   = 1
)

// HistoricalTotals is aggregated activity over a past period.
type HistoricalTotals struct {
	ClosedDeals            int `json:"closed_deals"`
	TotalWeeks             int `json:"total_weeks"`
	Touchpoints            int `json:"touchpoints"`
	Meetings               int `json:"meetings"`
	NewContacts            int `json:"new_contacts"`
	Proposals              int `json:"proposals"`
	HighQualityTouchpoints int `json:"high_quality_touchpoints"`
}

// Calibrate recomputes the benchmarks of current from historical activity.
// It returns nil when fewer than MinClosedDeals deals have closed.  The
// returned Config is a new value; current is left untouched.
func Calibrate(current Config, totals HistoricalTotals, now time.Time) *Config {
	if totals.ClosedDeals < MinClosedDeals {
		return nil
	}

	weeks := float64(totals.TotalWeeks)
	if weeks < 1 {
		weeks = 1
	}
	perWeek := func(n int) float64 { return math.Round(float64(n) / weeks) }

	hq := 0.0
	if totals.Touchpoints > 0 {
		hq = float64(totals.HighQualityTouchpoints) / float64(totals.Touchpoints)
	}

	next := current.Clone()
	next.Benchmarks = Benchmarks{
		TouchpointsPerWeek:      perWeek(totals.Touchpoints),
		MeetingsPerWeek:         perWeek(totals.Meetings),
		NewContactsPerWeek:      math.Max(minNewContactsPerWeek, perWeek(totals.NewContacts)),
		ProposalsPerWeek:        perWeek(totals.Proposals),
		HighQualityPctTarget:    math.Min(maxHighQualityPctTarget, math.Max(minHighQualityPctTarget, hq)),
		TouchpointsPerActiveOpp: current.Benchmarks.TouchpointsPerActiveOpp,
	}
	next.AutoCalibrate = true
	ts := now
	next.LastCalibratedAt = &ts
	return &next
}

//Personal.AI order the ending
