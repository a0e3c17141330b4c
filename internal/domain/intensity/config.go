// Package intensity scores opportunity engagement: recency temperatures, the
// 0–100 intensity score, required weekly activity, pipeline health grades and
// benchmark calibration from historical activity.
package intensity

import (
	"fmt"
	"math"
	"time"

	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// Thresholds are the inclusive day limits of each temperature band.
type Thresholds struct {
	HotDays  int `json:"hot_days" yaml:"hot_days" mapstructure:"hot_days"`
	WarmDays int `json:"warm_days" yaml:"warm_days" mapstructure:"warm_days"`
	CoolDays int `json:"cool_days" yaml:"cool_days" mapstructure:"cool_days"`
	ColdDays int `json:"cold_days" yaml:"cold_days" mapstructure:"cold_days"`
}

// Weights of the four sub-scores in the composite score.
type Weights struct {
	TouchpointFrequency float64 `json:"touchpoint_frequency" yaml:"touchpoint_frequency" mapstructure:"touchpoint_frequency"`
	Recency             float64 `json:"recency" yaml:"recency" mapstructure:"recency"`
	HighQualityRatio    float64 `json:"high_quality_ratio" yaml:"high_quality_ratio" mapstructure:"high_quality_ratio"`
	Diversity           float64 `json:"diversity" yaml:"diversity" mapstructure:"diversity"`
}

// Sum adds the four weights.
func (w Weights) Sum() float64 {
	return w.TouchpointFrequency + w.Recency + w.HighQualityRatio + w.Diversity
}

// Benchmarks are target activity rates.
type Benchmarks struct {
	TouchpointsPerWeek      float64 `json:"touchpoints_per_week" yaml:"touchpoints_per_week" mapstructure:"touchpoints_per_week"`
	MeetingsPerWeek         float64 `json:"meetings_per_week" yaml:"meetings_per_week" mapstructure:"meetings_per_week"`
	NewContactsPerWeek      float64 `json:"new_contacts_per_week" yaml:"new_contacts_per_week" mapstructure:"new_contacts_per_week"`
	ProposalsPerWeek        float64 `json:"proposals_per_week" yaml:"proposals_per_week" mapstructure:"proposals_per_week"`
	HighQualityPctTarget    float64 `json:"high_quality_pct_target" yaml:"high_quality_pct_target" mapstructure:"high_quality_pct_target"`
	TouchpointsPerActiveOpp float64 `json:"touchpoints_per_active_opp" yaml:"touchpoints_per_active_opp" mapstructure:"touchpoints_per_active_opp"`
}

// Config is the full scoring configuration.  It is a value: calibration
// returns a new Config and never modifies the one it was given.
type Config struct {
	Thresholds       Thresholds `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds"`
	Weights          Weights    `json:"weights" yaml:"weights" mapstructure:"weights"`
	Benchmarks       Benchmarks `json:"benchmarks" yaml:"benchmarks" mapstructure:"benchmarks"`
	AutoCalibrate    bool       `json:"auto_calibrate" yaml:"auto_calibrate" mapstructure:"auto_calibrate"`
	LastCalibratedAt *time.Time `json:"last_calibrated_at,omitempty" yaml:"last_calibrated_at"`
}

// Default configuration values.
const (
	DefaultHotDays  = 14
	DefaultWarmDays = 30
	DefaultCoolDays = 60
	DefaultColdDays = 90

	DefaultFrequencyWeight = 0.35
	DefaultRecencyWeight   = 0.30
	DefaultQualityWeight   = 0.20
	DefaultDiversityWeight = 0.15

	DefaultTouchpointsPerWeek      = 10
	DefaultMeetingsPerWeek         = 3
	DefaultNewContactsPerWeek      = 2
	DefaultProposalsPerWeek        = 1
	DefaultHighQualityPctTarget    = 0.4
	DefaultTouchpointsPerActiveOpp = 4
)

// weightSumTolerance bounds how far the weights may drift from summing to 1.
const weightSumTolerance = 1e-6

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			HotDays:  DefaultHotDays,
			WarmDays: DefaultWarmDays,
			CoolDays: DefaultCoolDays,
			ColdDays: DefaultColdDays,
		},
		Weights: Weights{
			TouchpointFrequency: DefaultFrequencyWeight,
			Recency:             DefaultRecencyWeight,
			HighQualityRatio:    DefaultQualityWeight,
			Diversity:           DefaultDiversityWeight,
		},
		Benchmarks: Benchmarks{
			TouchpointsPerWeek:      DefaultTouchpointsPerWeek,
			MeetingsPerWeek:         DefaultMeetingsPerWeek,
			NewContactsPerWeek:      DefaultNewContactsPerWeek,
			ProposalsPerWeek:        DefaultProposalsPerWeek,
			HighQualityPctTarget:    DefaultHighQualityPctTarget,
			TouchpointsPerActiveOpp: DefaultTouchpointsPerActiveOpp,
		},
	}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	if c.LastCalibratedAt != nil {
		ts := *c.LastCalibratedAt
		out.LastCalibratedAt = &ts
	}
	return out
}

// Validate checks ascending thresholds, non-negative weights summing to 1 and
// usable benchmarks.
func (c Config) Validate() error {
	t := c.Thresholds
	if t.HotDays < 0 || t.HotDays >= t.WarmDays || t.WarmDays >= t.CoolDays || t.CoolDays >= t.ColdDays {
		return invalidConfig(fmt.Sprintf("thresholds must ascend strictly from zero: %d/%d/%d/%d",
			t.HotDays, t.WarmDays, t.CoolDays, t.ColdDays))
	}
	w := c.Weights
	if w.TouchpointFrequency < 0 || w.Recency < 0 || w.HighQualityRatio < 0 || w.Diversity < 0 {
		return invalidConfig("weights must be non-negative")
	}
	if math.Abs(w.Sum()-1) > weightSumTolerance {
		return invalidConfig(fmt.Sprintf("weights must sum to 1, got %.6f", w.Sum()))
	}
	b := c.Benchmarks
	if b.TouchpointsPerWeek < 0 || b.MeetingsPerWeek < 0 || b.NewContactsPerWeek < 0 ||
		b.ProposalsPerWeek < 0 || b.TouchpointsPerActiveOpp < 0 {
		return invalidConfig("benchmarks must be non-negative")
	}
	if b.HighQualityPctTarget <= 0 || b.HighQualityPctTarget > 1 {
		return invalidConfig(fmt.Sprintf("high quality target %.3f outside (0,1]", b.HighQualityPctTarget))
	}
	return nil
}

func invalidConfig(detail string) error {
	return errors.New(errors.ErrCodeInvalidIntensityConfig, "invalid intensity configuration").WithDetail(detail)
}

//Personal.AI order the ending
