package intensity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/pipeline-engine/pkg/errors"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.InDelta(t, 1.0, DefaultConfig().Weights.Sum(), 1e-12)
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]func(*Config){
		"thresholds not ascending": func(c *Config) { c.Thresholds.WarmDays = c.Thresholds.HotDays },
		"negative hot days":        func(c *Config) { c.Thresholds.HotDays = -1 },
		"weights do not sum":       func(c *Config) { c.Weights.Recency = 0.5 },
		"negative weight":          func(c *Config) { c.Weights.Diversity = -0.15; c.Weights.Recency = 0.6 },
		"zero quality target":      func(c *Config) { c.Benchmarks.HighQualityPctTarget = 0 },
		"negative benchmark":       func(c *Config) { c.Benchmarks.MeetingsPerWeek = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.True(t, errors.IsCode(cfg.Validate(), errors.ErrCodeInvalidIntensityConfig))
		})
	}
}

func TestConfig_CloneIsDeep(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.LastCalibratedAt = &ts

	cp := cfg.Clone()
	*cp.LastCalibratedAt = ts.Add(time.Hour)
	assert.Equal(t, ts, *cfg.LastCalibratedAt)
}
