package intensity

// HealthGrade is the overall pipeline health.
type HealthGrade string

const (
	Healthy   HealthGrade = "healthy"
	Attention HealthGrade = "attention"
	Critical  HealthGrade = "critical"
)

const (
	healthyActivityRatio   = 0.8
	healthyHotRatio        = 0.4
	attentionActivityRatio = 0.5
	attentionHotRatio      = 0.2
)

// HealthAssessment is a grade with the ratios that produced it.
type HealthAssessment struct {
	Grade         HealthGrade `json:"grade"`
	ActivityRatio float64     `json:"activity_ratio"`
	HotRatio      float64     `json:"hot_ratio"`
}

// AssessHealth grades the pipeline.  Healthy needs both the activity and hot
// ratios; attention needs either of the looser ones; anything else is critical.
func AssessHealth(actualWeekly, requiredWeekly float64, hotOpps, totalActiveOpps int) HealthAssessment {
	a := HealthAssessment{ActivityRatio: 1}
	if requiredWeekly > 0 {
		a.ActivityRatio = actualWeekly / requiredWeekly
	}
	if totalActiveOpps > 0 {
		a.HotRatio = float64(hotOpps) / float64(totalActiveOpps)
	}

	switch {
	case a.ActivityRatio >= healthyActivityRatio && a.HotRatio >= healthyHotRatio:
		a.Grade = Healthy
	case a.ActivityRatio >= attentionActivityRatio || a.HotRatio >= attentionHotRatio:
		a.Grade = Attention
	default:
		a.Grade = Critical
	}
	return a
}
