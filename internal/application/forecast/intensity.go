package forecast

import (
	"context"
	"time"

	"github.com/turtacn/pipeline-engine/internal/domain/intensity"
	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// Calibration outcomes, also used as metric label values.
const (
	CalibrationApplied = "applied"
	CalibrationSkipped = "skipped"
	CalibrationFailed  = "failed"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// ScoreRequest carries the activity signals of one opportunity.  A nil
// ExpectedTouchpoints falls back to the per-opportunity benchmark; an
// explicit value, zero or negative included, is scored as given.
type ScoreRequest struct {
	Touchpoints         int      `json:"touchpoints"`
	ExpectedTouchpoints *float64 `json:"expected_touchpoints,omitempty"`
	DaysSinceLastTouch  int      `json:"days_since_last_touch"`
	HighQualityPct      float64  `json:"high_quality_pct"`
}

// ScoreResponse is a score with its sub-scores and the matching temperature.
type ScoreResponse struct {
	intensity.Breakdown
	Temperature intensity.Temperature `json:"temperature"`
}

// ClassifyRequest classifies recency, optionally overridden by stage.
type ClassifyRequest struct {
	Days  int            `json:"days"`
	Stage pipeline.Stage `json:"stage,omitempty"`
}

// ClassifyResponse is the temperature of a ClassifyRequest.
type ClassifyResponse struct {
	Days        int                   `json:"days"`
	Temperature intensity.Temperature `json:"temperature"`
}

// RequiredRequest asks for the weekly rates needed over the remaining weeks
// of the quarter.  Nil Targets means the configured benchmarks.
type RequiredRequest struct {
	WeeksRemaining int                      `json:"weeks_remaining"`
	Targets        *intensity.WeeklyTargets `json:"targets,omitempty"`
}

// HealthRequest grades the pipeline.  RequiredWeekly defaults to the
// touchpoint benchmark; when HotOpps or ActiveOpps is nil both are counted
// from the snapshot's opportunities.
type HealthRequest struct {
	ActualWeekly   float64  `json:"actual_weekly"`
	RequiredWeekly *float64 `json:"required_weekly,omitempty"`
	HotOpps        *int     `json:"hot_opps,omitempty"`
	ActiveOpps     *int     `json:"active_opps,omitempty"`
}

// CalibrateRequest carries historical activity.
type CalibrateRequest struct {
	intensity.HistoricalTotals
}

// CalibrateResponse reports whether a new configuration was stored and the
// configuration now in effect.
type CalibrateResponse struct {
	Result string           `json:"result"`
	Config intensity.Config `json:"config"`
}

// OpportunityTemperature is the classification of one opportunity.
type OpportunityTemperature struct {
	OpportunityID string                `json:"opportunity_id"`
	Name          string                `json:"name"`
	Stage         pipeline.Stage        `json:"stage"`
	Days          int                   `json:"days"`
	Temperature   intensity.Temperature `json:"temperature"`
}

// PortfolioTemperatures classifies every opportunity of the snapshot.
// Active opportunities are those neither closed nor dormant.
type PortfolioTemperatures struct {
	AsOf          time.Time                     `json:"as_of"`
	Counts        map[intensity.Temperature]int `json:"counts"`
	Hot           int                           `json:"hot"`
	Active        int                           `json:"active"`
	Opportunities []OpportunityTemperature      `json:"opportunities"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// IntensityService scores engagement and plans activity against the stored
// intensity configuration.
type IntensityService interface {
	Config(ctx context.Context) (intensity.Config, error)
	Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error)
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)
	Required(ctx context.Context, req RequiredRequest) (*intensity.RequiredRates, error)
	Health(ctx context.Context, req HealthRequest) (*intensity.HealthAssessment, error)
	Calibrate(ctx context.Context, req CalibrateRequest) (*CalibrateResponse, error)
	PortfolioTemperatures(ctx context.Context) (*PortfolioTemperatures, error)
}

type intensityServiceImpl struct {
	source  ReferenceSource
	store   ConfigStore
	logger  logging.Logger
	metrics *prometheus.EngineMetrics
	now     func() time.Time
}

// NewIntensityService returns an IntensityService.  src is only needed for
// PortfolioTemperatures and for Health requests without opportunity counts.
func NewIntensityService(src ReferenceSource, store ConfigStore, opts ...Option) IntensityService {
	o := buildOptions(opts)
	if store == nil {
		store = NewMemoryConfigStore(intensity.DefaultConfig())
	}
	return &intensityServiceImpl{
		source:  src,
		store:   store,
		logger:  o.logger.Named("intensity_service"),
		metrics: o.metrics,
		now:     o.now,
	}
}

func (s *intensityServiceImpl) Config(ctx context.Context) (intensity.Config, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return intensity.Config{}, errors.Wrap(err, errors.CodeUnknown, "failed to load intensity config")
	}
	return cfg, nil
}

func (s *intensityServiceImpl) Score(ctx context.Context, req ScoreRequest) (resp *ScoreResponse, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordCalculation(prometheus.OpScore, time.Since(start), err) }()

	if req.Touchpoints < 0 || req.DaysSinceLastTouch < 0 {
		return nil, errors.InvalidParam("touchpoints and days must be non-negative")
	}
	if req.HighQualityPct < 0 || req.HighQualityPct > 1 {
		return nil, errors.InvalidParam("high quality share must be within [0,1]")
	}

	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	in := intensity.ScoreInput{
		Touchpoints:         req.Touchpoints,
		ExpectedTouchpoints: cfg.Benchmarks.TouchpointsPerActiveOpp,
		DaysSinceLastTouch:  req.DaysSinceLastTouch,
		HighQualityPct:      req.HighQualityPct,
	}
	if req.ExpectedTouchpoints != nil {
		in.ExpectedTouchpoints = *req.ExpectedTouchpoints
	}
	return &ScoreResponse{
		Breakdown:   intensity.ScoreBreakdown(in, cfg),
		Temperature: intensity.Classify(in.DaysSinceLastTouch, cfg.Thresholds),
	}, nil
}

func (s *intensityServiceImpl) Classify(ctx context.Context, req ClassifyRequest) (resp *ClassifyResponse, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordCalculation(prometheus.OpClassify, time.Since(start), err) }()

	if req.Days < 0 {
		return nil, errors.InvalidParam("days must be non-negative")
	}
	stage := req.Stage
	if stage != "" {
		st, ok := pipeline.ParseStage(string(stage))
		if !ok {
			return nil, errors.InvalidParam("unknown stage").WithDetail(string(stage))
		}
		stage = st
	}

	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	return &ClassifyResponse{
		Days:        req.Days,
		Temperature: intensity.ClassifyOpportunity(stage, req.Days, cfg.Thresholds),
	}, nil
}

func (s *intensityServiceImpl) Required(ctx context.Context, req RequiredRequest) (resp *intensity.RequiredRates, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordCalculation(prometheus.OpRequired, time.Since(start), err) }()

	var targets intensity.WeeklyTargets
	if req.Targets != nil {
		targets = *req.Targets
	} else {
		cfg, err := s.Config(ctx)
		if err != nil {
			return nil, err
		}
		targets = intensity.TargetsFromBenchmarks(cfg.Benchmarks)
	}
	rates := intensity.RequiredIntensity(targets, req.WeeksRemaining)
	return &rates, nil
}

func (s *intensityServiceImpl) Health(ctx context.Context, req HealthRequest) (resp *intensity.HealthAssessment, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordCalculation(prometheus.OpHealth, time.Since(start), err) }()

	if req.ActualWeekly < 0 {
		return nil, errors.InvalidParam("actual weekly activity must be non-negative")
	}

	var required float64
	if req.RequiredWeekly != nil {
		required = *req.RequiredWeekly
	} else {
		cfg, err := s.Config(ctx)
		if err != nil {
			return nil, err
		}
		required = cfg.Benchmarks.TouchpointsPerWeek
	}

	var hot, active int
	if req.HotOpps != nil && req.ActiveOpps != nil {
		hot, active = *req.HotOpps, *req.ActiveOpps
	} else {
		pt, err := s.PortfolioTemperatures(ctx)
		if err != nil {
			return nil, err
		}
		hot, active = pt.Hot, pt.Active
	}
	if hot < 0 || active < 0 || hot > active {
		return nil, errors.InvalidParam("hot opportunities must be between zero and the active count")
	}

	a := intensity.AssessHealth(req.ActualWeekly, required, hot, active)
	return &a, nil
}

func (s *intensityServiceImpl) Calibrate(ctx context.Context, req CalibrateRequest) (resp *CalibrateResponse, err error) {
	start := time.Now()
	result := CalibrationFailed
	defer func() {
		s.metrics.RecordCalculation(prometheus.OpCalibrate, time.Since(start), err)
		s.metrics.RecordCalibration(result)
	}()

	t := req.HistoricalTotals
	if t.ClosedDeals < 0 || t.TotalWeeks < 0 || t.Touchpoints < 0 || t.Meetings < 0 ||
		t.NewContacts < 0 || t.Proposals < 0 || t.HighQualityTouchpoints < 0 {
		return nil, errors.InvalidParam("historical totals must be non-negative")
	}
	if t.HighQualityTouchpoints > t.Touchpoints {
		return nil, errors.InvalidParam("high quality touchpoints exceed total touchpoints")
	}

	current, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}

	next := intensity.Calibrate(current, t, s.now())
	if next == nil {
		result = CalibrationSkipped
		s.logger.Info("calibration skipped",
			logging.Int("closed_deals", t.ClosedDeals),
			logging.Int("required", intensity.MinClosedDeals),
		)
		return &CalibrateResponse{Result: result, Config: current}, nil
	}

	if err := s.store.Save(ctx, *next); err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to store calibrated config")
	}
	result = CalibrationApplied
	s.logger.Info("intensity benchmarks calibrated",
		logging.Int("closed_deals", t.ClosedDeals),
		logging.Int("total_weeks", t.TotalWeeks),
		logging.Float64("touchpoints_per_week", next.Benchmarks.TouchpointsPerWeek),
		logging.Float64("high_quality_pct_target", next.Benchmarks.HighQualityPctTarget),
	)
	return &CalibrateResponse{Result: result, Config: *next}, nil
}

func (s *intensityServiceImpl) PortfolioTemperatures(ctx context.Context) (*PortfolioTemperatures, error) {
	snap, err := loadSnapshot(ctx, s.source)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pt := &PortfolioTemperatures{
		AsOf:          now,
		Counts:        make(map[intensity.Temperature]int, len(intensity.Temperatures)),
		Opportunities: make([]OpportunityTemperature, 0, len(snap.Opportunities)),
	}
	for _, t := range intensity.Temperatures {
		pt.Counts[t] = 0
	}

	for _, rec := range snap.Opportunities {
		opp := pipeline.Opportunity{UpdatedAt: rec.UpdatedAt, LastTouchAt: rec.LastTouchAt}
		days := opp.DaysSinceLastTouch(now)
		temp := intensity.ClassifyOpportunity(rec.Stage, days, cfg.Thresholds)

		pt.Counts[temp]++
		if !rec.Stage.IsClosed() && rec.Stage != pipeline.StageDormant {
			pt.Active++
			if temp == intensity.Hot {
				pt.Hot++
			}
		}
		pt.Opportunities = append(pt.Opportunities, OpportunityTemperature{
			OpportunityID: rec.ID,
			Name:          rec.Name,
			Stage:         rec.Stage,
			Days:          days,
			Temperature:   temp,
		})
	}
	return pt, nil
}

//Personal.AI order the ending
