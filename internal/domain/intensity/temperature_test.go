package intensity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
)

func TestClassify_Boundaries(t *testing.T) {
	th := DefaultConfig().Thresholds

	cases := map[Temperature][]int{
		Hot:     {-1, 0, 14},
		Warm:    {15, 30},
		Cool:    {31, 60},
		Cold:    {61, 90},
		Dormant: {91, 365},
	}
	for want, days := range cases {
		for _, d := range days {
			assert.Equal(t, want, Classify(d, th), "days=%d", d)
		}
	}
}

func TestClassifyOpportunity_StageOverrides(t *testing.T) {
	th := DefaultConfig().Thresholds

	assert.Equal(t, Cold, ClassifyOpportunity(pipeline.StageWon, 0, th))
	assert.Equal(t, Cold, ClassifyOpportunity(pipeline.StageLost, 400, th))
	assert.Equal(t, Dormant, ClassifyOpportunity(pipeline.StageDormant, 0, th))
	assert.Equal(t, Hot, ClassifyOpportunity(pipeline.StageProposal, 3, th))
	assert.Equal(t, Dormant, ClassifyOpportunity(pipeline.StageLead, 120, th))
}
