package cli

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/turtacn/pipeline-engine/internal/application/forecast"
	"github.com/turtacn/pipeline-engine/internal/domain/money"
	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

func newCommissionCmd() *cobra.Command {
	var (
		deal        string
		structureID string
		country     string
		sector      string
		oppID       string
	)

	cmd := &cobra.Command{
		Use:   "commission",
		Short: "Price a single deal",
		Long:  "Resolve the applicable fee structure and compute the tiered commission,\nits verification and withholding scenarios for one deal in USD millions.",
		Example: "  pipelinectl commission --deal 50\n" +
			"  pipelinectl commission --deal 100 --country CO -o json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			dealMillions, err := money.ParseMillions(deal)
			if err != nil {
				return errors.InvalidParam(fmt.Sprintf("invalid --deal %q", deal))
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			resp, err := cliCtx.Commission.Calculate(ctx, forecast.CommissionRequest{
				DealMillions:  dealMillions,
				StructureID:   structureID,
				Country:       country,
				Sector:        sector,
				OpportunityID: oppID,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, commissionView{resp})
		},
	}

	cmd.Flags().StringVar(&deal, "deal", "", "deal value in USD millions [REQUIRED]")
	cmd.Flags().StringVar(&structureID, "structure", "", "explicit fee structure ID")
	cmd.Flags().StringVar(&country, "country", "", "country code used for resolution and withholding")
	cmd.Flags().StringVar(&sector, "sector", "", "sector code used for resolution")
	cmd.Flags().StringVar(&oppID, "opportunity", "", "opportunity ID for project-scoped structures")
	_ = cmd.MarkFlagRequired("deal")

	return cmd
}

type commissionView struct {
	*forecast.CommissionResponse
}

func (v commissionView) TableHeaders() []string {
	return []string{"TIER", "APPLICABLE (M)", "RATE", "FEE (M)"}
}

func (v commissionView) TableRows() [][]string {
	r := v.Result
	rows := make([][]string, 0, len(r.TierBreakdown)+len(r.Withholding)+4)
	for _, item := range r.TierBreakdown {
		rows = append(rows, []string{item.Tier.Label, item.ApplicableMillions.String(), percent(item.Tier.Rate), item.Fee.String()})
	}
	rows = append(rows,
		[]string{"GROSS", r.DealMillions.String(), percent(r.EffectiveRate), r.GrossFee.String()},
		[]string{"structure", r.StructureID + " (" + string(v.ResolvedBy) + ")", "", ""},
		[]string{"verified", strconv.FormatBool(r.Verification.MatchesGross), "", r.Verification.SumOfTiers.String()},
	)
	for _, w := range r.Withholding {
		label := "net/" + w.Scenario.Name
		if w.Scenario.IsDefault {
			label += "*"
		}
		rows = append(rows, []string{label, w.WithholdingAmount.String(), percent(w.Scenario.Rate), w.NetFee.String()})
	}
	return rows
}

func newPipelineCmd() *cobra.Command {
	var (
		policy       string
		skipFailures bool
	)

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Aggregate forecast fees across the opportunity pipeline",
		Long:  "Price every open opportunity of the reference data snapshot and sum gross\nand probability-weighted fees.  Lost and dormant opportunities are excluded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			req := forecast.PipelineRequest{Policy: pipeline.FailurePolicy(policy)}
			if skipFailures {
				req.Policy = pipeline.SkipAndReport
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			report, err := cliCtx.Commission.PipelineFees(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, pipelineView{report})
		},
	}

	cmd.Flags().StringVar(&policy, "policy", "", "failure policy: abort or skip (default: engine.failure_policy)")
	cmd.Flags().BoolVar(&skipFailures, "skip-failures", false, "shorthand for --policy skip")

	return cmd
}

type pipelineView struct {
	*forecast.PipelineReport
}

func (v pipelineView) TableHeaders() []string {
	return []string{"OPPORTUNITY", "STAGE", "STRUCTURE", "GROSS (M)", "P(AWARD)", "WEIGHTED (M)"}
}

func (v pipelineView) TableRows() [][]string {
	s := v.Summary
	rows := make([][]string, 0, len(s.ByOpportunity)+len(s.Failures)+2)
	for _, o := range s.ByOpportunity {
		rows = append(rows, []string{
			o.OpportunityID,
			string(o.Stage),
			o.StructureID,
			o.Commission.GrossFee.String(),
			o.ProbabilityOfAward.String(),
			o.WeightedGross.String(),
		})
	}
	for _, f := range s.Failures {
		rows = append(rows, []string{f.OpportunityID, "FAILED", string(f.Code), "", "", f.Message})
	}
	rows = append(rows, []string{
		"TOTAL",
		fmt.Sprintf("%d excluded", s.Excluded),
		string(v.Policy),
		s.TotalGrossFees.String(),
		"",
		s.TotalWeightedFees.String(),
	})
	return rows
}

func newConvertCmd() *cobra.Command {
	var amount, from, to string

	cmd := &cobra.Command{
		Use:     "convert",
		Short:   "Convert an amount between currencies",
		Example: "  pipelinectl convert --amount 200000000000 --from COP --to USD",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return errors.InvalidParam(fmt.Sprintf("invalid --amount %q", amount))
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			resp, err := cliCtx.Commission.Convert(ctx, forecast.ConvertRequest{Amount: value, From: from, To: to})
			if err != nil {
				return err
			}
			return PrintResult(cmd, convertView{resp})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount in units of --from [REQUIRED]")
	cmd.Flags().StringVar(&from, "from", "", "source currency code [REQUIRED]")
	cmd.Flags().StringVar(&to, "to", "USD", "target currency code")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

type convertView struct {
	*forecast.ConvertResponse
}

func (v convertView) String() string {
	return fmt.Sprintf("%s %s = %s %s", v.Amount, v.From, v.Converted, v.To)
}

// percent renders a fraction such as 0.0125 as "1.25%".
func percent(d decimal.Decimal) string {
	return d.Shift(2).String() + "%"
}

//Personal.AI order the ending
