package intensity

import "math"

// diversityFactor derives the diversity sub-score from frequency.  There is no
// independent interaction-type signal yet.
const diversityFactor = 0.8

// recencyDecaySpan stretches the recency decay past the cold threshold.
const recencyDecaySpan = 1.5

// ScoreInput holds the activity signals for one opportunity.
type ScoreInput struct {
	Touchpoints         int     `json:"touchpoints"`
	ExpectedTouchpoints float64 `json:"expected_touchpoints"`
	DaysSinceLastTouch  int     `json:"days_since_last_touch"`
	HighQualityPct      float64 `json:"high_quality_pct"`
}

// Breakdown exposes the sub-scores behind a composite score.
type Breakdown struct {
	Frequency float64 `json:"frequency"`
	Recency   float64 `json:"recency"`
	Quality   float64 `json:"quality"`
	Diversity float64 `json:"diversity"`
	Score     int     `json:"score"`
}

// Score returns the composite intensity score in [0,100].
func Score(in ScoreInput, cfg Config) int {
	return ScoreBreakdown(in, cfg).Score
}

// ScoreBreakdown computes each sub-score in [0,1] and their weighted
// composite scaled to [0,100].
func ScoreBreakdown(in ScoreInput, cfg Config) Breakdown {
	var b Breakdown

	if in.ExpectedTouchpoints > 0 {
		b.Frequency = clamp01(float64(in.Touchpoints) / in.ExpectedTouchpoints)
	}

	if in.DaysSinceLastTouch <= 0 {
		b.Recency = 1
	} else if span := float64(cfg.Thresholds.ColdDays) * recencyDecaySpan; span > 0 {
		b.Recency = clamp01(1 - float64(in.DaysSinceLastTouch)/span)
	}

	if target := cfg.Benchmarks.HighQualityPctTarget; target > 0 {
		b.Quality = clamp01(in.HighQualityPct / target)
	}

	b.Diversity = b.Frequency * diversityFactor

	w := cfg.Weights
	composite := b.Frequency*w.TouchpointFrequency +
		b.Recency*w.Recency +
		b.Quality*w.HighQualityRatio +
		b.Diversity*w.Diversity

	b.Score = int(math.Max(0, math.Min(100, math.Round(composite*100))))
	return b
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

//Personal.AI order the ending
