package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/turtacn/pipeline-engine/internal/domain/commission"
	"github.com/turtacn/pipeline-engine/internal/domain/currency"
	"github.com/turtacn/pipeline-engine/internal/domain/fee"
	"github.com/turtacn/pipeline-engine/internal/domain/money"
	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
	"github.com/turtacn/pipeline-engine/internal/domain/withholding"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/referencedata"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// CommissionRequest prices a single deal.  StructureID, Country and Sector
// drive fee structure resolution; Country also selects the withholding
// profile.
type CommissionRequest struct {
	DealMillions  money.Millions `json:"deal_millions"`
	StructureID   string         `json:"structure_id,omitempty"`
	Country       string         `json:"country,omitempty"`
	Sector        string         `json:"sector,omitempty"`
	OpportunityID string         `json:"opportunity_id,omitempty"`
}

// CommissionResponse is a commission result with its resolution context.
type CommissionResponse struct {
	*commission.Result
	ResolvedBy fee.Level           `json:"resolved_by"`
	DefaultNet *withholding.Result `json:"default_net,omitempty"`
}

// PipelineRequest runs a portfolio aggregation.  An empty Policy falls back
// to the service default.
type PipelineRequest struct {
	Policy pipeline.FailurePolicy `json:"policy,omitempty"`
}

// PipelineReport is one aggregation run over the snapshot's opportunities.
type PipelineReport struct {
	RunID       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Policy      pipeline.FailurePolicy `json:"policy"`
	Source      string                 `json:"source"`
	*pipeline.Summary
}

// ConvertRequest converts Amount units of From into To.
type ConvertRequest struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
}

// ConvertResponse is the converted amount.
type ConvertResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      currency.Code   `json:"from"`
	To        currency.Code   `json:"to"`
	Converted decimal.Decimal `json:"converted"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// CommissionService prices deals and portfolios against the current
// reference data.
type CommissionService interface {
	Calculate(ctx context.Context, req CommissionRequest) (*CommissionResponse, error)
	PipelineFees(ctx context.Context, req PipelineRequest) (*PipelineReport, error)
	Convert(ctx context.Context, req ConvertRequest) (*ConvertResponse, error)
}

type commissionServiceImpl struct {
	source  ReferenceSource
	policy  pipeline.FailurePolicy
	logger  logging.Logger
	metrics *prometheus.EngineMetrics
	now     func() time.Time
}

// NewCommissionService returns a CommissionService reading src.  policy is
// the failure policy used when a request names none.
func NewCommissionService(src ReferenceSource, policy pipeline.FailurePolicy, opts ...Option) CommissionService {
	o := buildOptions(opts)
	if policy == "" {
		policy = pipeline.AbortOnError
	}
	return &commissionServiceImpl{
		source:  src,
		policy:  policy,
		logger:  o.logger.Named("commission_service"),
		metrics: o.metrics,
		now:     o.now,
	}
}

func (s *commissionServiceImpl) Calculate(ctx context.Context, req CommissionRequest) (resp *CommissionResponse, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordCalculation(prometheus.OpCommission, time.Since(start), err) }()

	snap, err := loadSnapshot(ctx, s.source)
	if err != nil {
		return nil, err
	}

	subject := fee.Subject{
		OpportunityID:  req.OpportunityID,
		FeeStructureID: req.StructureID,
		Country:        req.Country,
		Sector:         req.Sector,
	}
	res, err := fee.Resolve(subject, snap.FeeStructures)
	if err != nil {
		return nil, err
	}

	var profile *withholding.Profile
	if p, ok := withholding.ResolveProfile(req.Country, snap.WithholdingProfiles); ok {
		profile = &p
	}

	result, err := commission.Calculate(req.DealMillions, res.Structure, profile)
	if err != nil {
		return nil, err
	}
	s.checkVerification(result)

	resp = &CommissionResponse{Result: result, ResolvedBy: res.Level}
	if net, ok := withholding.DefaultNet(result.Withholding); ok {
		resp.DefaultNet = &net
	}

	s.logger.Debug("commission calculated",
		logging.String(logging.KeyStructureID, result.StructureID),
		logging.String("resolved_by", string(res.Level)),
		logging.String("gross_fee", result.GrossFee.String()),
	)
	return resp, nil
}

func (s *commissionServiceImpl) checkVerification(r *commission.Result) {
	if r.Verification.MatchesGross {
		return
	}
	s.metrics.RecordVerificationMismatch(r.StructureID)
	s.logger.Warn("tier breakdown does not match gross fee",
		logging.String(logging.KeyStructureID, r.StructureID),
		logging.String("gross_fee", r.GrossFee.String()),
		logging.String("sum_of_tiers", r.Verification.SumOfTiers.String()),
	)
}

func (s *commissionServiceImpl) PipelineFees(ctx context.Context, req PipelineRequest) (report *PipelineReport, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordCalculation(prometheus.OpPipelineFees, time.Since(start), err) }()

	policy := req.Policy
	if policy == "" {
		policy = s.policy
	}
	if _, err := pipeline.ParseFailurePolicy(string(policy)); err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(ctx, s.source)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := s.logger.With(logging.String(logging.KeyRunID, runID))

	opps, convFailures, err := toOpportunities(snap, policy)
	if err != nil {
		log.WithError(err).Warn("pipeline aggregation aborted during currency conversion")
		return nil, err
	}

	summary, err := pipeline.CalculateFees(opps, snap.FeeStructures, snap.WithholdingProfiles, pipeline.Options{Policy: policy})
	if err != nil {
		log.WithError(err).Warn("pipeline aggregation aborted")
		return nil, err
	}
	if len(convFailures) > 0 {
		summary.Failures = append(convFailures, summary.Failures...)
	}
	for _, item := range summary.ByOpportunity {
		s.checkVerification(item.Commission)
	}

	s.metrics.RecordPipelineTotals(summary.TotalGrossFees.Float64(), summary.TotalWeightedFees.Float64(), len(summary.Failures))
	for _, f := range summary.Failures {
		log.Warn("opportunity skipped",
			logging.String(logging.KeyOpportunityID, f.OpportunityID),
			logging.String(logging.KeyErrorCode, string(f.Code)),
		)
	}
	log.Info("pipeline fees calculated",
		logging.Int("priced", len(summary.ByOpportunity)),
		logging.Int("excluded", summary.Excluded),
		logging.Int("failures", len(summary.Failures)),
		logging.String("total_gross_fees", summary.TotalGrossFees.String()),
		logging.String("total_weighted_fees", summary.TotalWeightedFees.String()),
	)

	return &PipelineReport{
		RunID:       runID,
		GeneratedAt: s.now(),
		Policy:      policy,
		Source:      snap.Source,
		Summary:     summary,
	}, nil
}

// toOpportunities converts snapshot records to domain opportunities with
// their ASCH value in USD.  Records in excluded stages are not converted.
func toOpportunities(snap *referencedata.Snapshot, policy pipeline.FailurePolicy) ([]pipeline.Opportunity, []pipeline.Failure, error) {
	rates := snap.Rates()
	opps := make([]pipeline.Opportunity, 0, len(snap.Opportunities))
	var failures []pipeline.Failure

	for _, rec := range snap.Opportunities {
		opp := pipeline.Opportunity{
			ID:                 rec.ID,
			Name:               rec.Name,
			Country:            rec.Country,
			Sector:             rec.Sector,
			FeeStructureID:     rec.FeeStructureID,
			ProbabilityOfAward: rec.ProbabilityOfAward,
			Stage:              rec.Stage,
			UpdatedAt:          rec.UpdatedAt,
			LastTouchAt:        rec.LastTouchAt,
		}
		if !rec.Stage.ExcludedFromForecast() {
			usd, err := currency.ConvertToUSD(rec.ASCHValue, rec.Currency, rates)
			if err != nil {
				if policy != pipeline.SkipAndReport {
					return nil, nil, errors.Wrap(err, errors.CodeUnknown, "pipeline aggregation aborted").
						WithDetail("opportunity " + rec.ID)
				}
				failures = append(failures, pipeline.Failure{
					OpportunityID: rec.ID,
					Code:          errors.GetCode(err),
					Message:       errors.UserMessage(err),
					Err:           err,
				})
				continue
			}
			opp.ASCHValueUSD = usd
		}
		opps = append(opps, opp)
	}
	return opps, failures, nil
}

func (s *commissionServiceImpl) Convert(ctx context.Context, req ConvertRequest) (resp *ConvertResponse, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordCalculation(prometheus.OpConvert, time.Since(start), err) }()

	from, err := currency.ParseCode(req.From)
	if err != nil {
		return nil, err
	}
	to, err := currency.ParseCode(req.To)
	if err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(ctx, s.source)
	if err != nil {
		return nil, err
	}
	converted, err := currency.Convert(req.Amount, from, to, snap.Rates())
	if err != nil {
		return nil, err
	}
	return &ConvertResponse{Amount: req.Amount, From: from, To: to, Converted: converted}, nil
}

//Personal.AI order the ending
