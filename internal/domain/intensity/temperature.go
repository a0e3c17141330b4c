package intensity

import "github.com/turtacn/pipeline-engine/internal/domain/pipeline"

// Temperature is a discrete engagement-recency band.
type Temperature string

const (
	Hot     Temperature = "hot"
	Warm    Temperature = "warm"
	Cool    Temperature = "cool"
	Cold    Temperature = "cold"
	Dormant Temperature = "dormant"
)

// Temperatures lists every band from hottest to coldest.
var Temperatures = []Temperature{Hot, Warm, Cool, Cold, Dormant}

// Classify maps days since the last touchpoint to a temperature.  Each
// threshold is inclusive, so a boundary day belongs to the hotter band.
func Classify(days int, t Thresholds) Temperature {
	switch {
	case days <= t.HotDays:
		return Hot
	case days <= t.WarmDays:
		return Warm
	case days <= t.CoolDays:
		return Cool
	case days <= t.ColdDays:
		return Cold
	default:
		return Dormant
	}
}

// ClassifyOpportunity lets the stage override recency: won and lost
// opportunities are cold and dormant ones are dormant.
func ClassifyOpportunity(stage pipeline.Stage, days int, t Thresholds) Temperature {
	switch stage {
	case pipeline.StageWon, pipeline.StageLost:
		return Cold
	case pipeline.StageDormant:
		return Dormant
	}
	return Classify(days, t)
}
