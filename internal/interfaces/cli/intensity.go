package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/pipeline-engine/internal/application/forecast"
	"github.com/turtacn/pipeline-engine/internal/domain/intensity"
	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
)

// newIntensityCmd groups the engagement intensity commands.
func newIntensityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intensity",
		Short: "Engagement intensity scoring and activity planning",
	}

	cmd.AddCommand(
		newIntensityScoreCmd(),
		newIntensityClassifyCmd(),
		newIntensityRequiredCmd(),
		newIntensityHealthCmd(),
		newIntensityCalibrateCmd(),
		newIntensityTemperaturesCmd(),
		newIntensityConfigCmd(),
	)
	return cmd
}

// runWith resolves the CLIContext and a bounded context, then calls fn.
func runWith(fn func(cmd *cobra.Command, cliCtx *CLIContext) (interface{}, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, cliCtx)
		defer cancel()
		cmd.SetContext(ctx)

		out, err := fn(cmd, cliCtx)
		if err != nil {
			return err
		}
		return PrintResult(cmd, out)
	}
}

func newIntensityScoreCmd() *cobra.Command {
	var (
		req      forecast.ScoreRequest
		expected float64
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the composite intensity score of one opportunity",
		RunE: runWith(func(cmd *cobra.Command, cliCtx *CLIContext) (interface{}, error) {
			if cmd.Flags().Changed("expected") {
				req.ExpectedTouchpoints = &expected
			}
			resp, err := cliCtx.Intensity.Score(cmd.Context(), req)
			if err != nil {
				return nil, err
			}
			return kvTable{
				{"score", strconv.Itoa(resp.Score)},
				{"temperature", string(resp.Temperature)},
				{"frequency", formatFloat(resp.Frequency)},
				{"recency", formatFloat(resp.Recency)},
				{"quality", formatFloat(resp.Quality)},
				{"diversity", formatFloat(resp.Diversity)},
			}.withJSON(resp), nil
		}),
	}

	cmd.Flags().IntVar(&req.Touchpoints, "touchpoints", 0, "touchpoints in the period")
	cmd.Flags().Float64Var(&expected, "expected", 0, "expected touchpoints (default: benchmark per active opportunity)")
	cmd.Flags().IntVar(&req.DaysSinceLastTouch, "days", 0, "days since the last touchpoint")
	cmd.Flags().Float64Var(&req.HighQualityPct, "hq-pct", 0, "share of high-quality touchpoints in [0,1]")

	return cmd
}

func newIntensityClassifyCmd() *cobra.Command {
	var (
		days  int
		stage string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify recency into a temperature band",
		RunE: runWith(func(cmd *cobra.Command, cliCtx *CLIContext) (interface{}, error) {
			resp, err := cliCtx.Intensity.Classify(cmd.Context(), forecast.ClassifyRequest{Days: days, Stage: pipeline.Stage(stage)})
			if err != nil {
				return nil, err
			}
			return kvTable{
				{"days", strconv.Itoa(resp.Days)},
				{"temperature", string(resp.Temperature)},
			}.withJSON(resp), nil
		}),
	}

	cmd.Flags().IntVar(&days, "days", 0, "days since the last touchpoint")
	cmd.Flags().StringVar(&stage, "stage", "", "opportunity stage; closed stages are dormant")

	return cmd
}

func newIntensityRequiredCmd() *cobra.Command {
	var (
		weeks   int
		targets intensity.WeeklyTargets
	)

	cmd := &cobra.Command{
		Use:   "required",
		Short: "Weekly activity needed over the remaining weeks of the quarter",
		RunE: runWith(func(cmd *cobra.Command, cliCtx *CLIContext) (interface{}, error) {
			req := forecast.RequiredRequest{WeeksRemaining: weeks}
			flags := cmd.Flags()
			if flags.Changed("touchpoints") || flags.Changed("meetings") || flags.Changed("new-contacts") || flags.Changed("proposals") {
				t := targets
				req.Targets = &t
			}
			resp, err := cliCtx.Intensity.Required(cmd.Context(), req)
			if err != nil {
				return nil, err
			}
			return kvTable{
				{"weeks_remaining", strconv.Itoa(resp.WeeksRemaining)},
				{"touchpoints", strconv.Itoa(resp.Touchpoints)},
				{"meetings", strconv.Itoa(resp.Meetings)},
				{"new_contacts", strconv.Itoa(resp.NewContacts)},
				{"proposals", strconv.Itoa(resp.Proposals)},
			}.withJSON(resp), nil
		}),
	}

	cmd.Flags().IntVar(&weeks, "weeks", intensity.WeeksPerQuarter, "weeks remaining in the quarter")
	cmd.Flags().Float64Var(&targets.Touchpoints, "touchpoints", 0, "weekly touchpoint target")
	cmd.Flags().Float64Var(&targets.Meetings, "meetings", 0, "weekly meeting target")
	cmd.Flags().Float64Var(&targets.NewContacts, "new-contacts", 0, "weekly new contact target")
	cmd.Flags().Float64Var(&targets.Proposals, "proposals", 0, "weekly proposal target")

	return cmd
}

func newIntensityHealthCmd() *cobra.Command {
	var (
		actual   float64
		required float64
		hot      int
		active   int
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Grade pipeline health from activity and hot opportunity ratios",
		Long:  "Grade pipeline health.  Without --hot and --active both counts are taken\nfrom the reference data opportunities.",
		RunE: runWith(func(cmd *cobra.Command, cliCtx *CLIContext) (interface{}, error) {
			req := forecast.HealthRequest{ActualWeekly: actual}
			flags := cmd.Flags()
			if flags.Changed("required") {
				req.RequiredWeekly = &required
			}
			if flags.Changed("hot") {
				req.HotOpps = &hot
			}
			if flags.Changed("active") {
				req.ActiveOpps = &active
			}
			resp, err := cliCtx.Intensity.Health(cmd.Context(), req)
			if err != nil {
				return nil, err
			}
			return kvTable{
				{"grade", string(resp.Grade)},
				{"activity_ratio", formatFloat(resp.ActivityRatio)},
				{"hot_ratio", formatFloat(resp.HotRatio)},
			}.withJSON(resp), nil
		}),
	}

	cmd.Flags().Float64Var(&actual, "actual", 0, "actual weekly touchpoints")
	cmd.Flags().Float64Var(&required, "required", 0, "required weekly touchpoints (default: benchmark)")
	cmd.Flags().IntVar(&hot, "hot", 0, "hot opportunities")
	cmd.Flags().IntVar(&active, "active", 0, "active opportunities")

	return cmd
}

func newIntensityCalibrateCmd() *cobra.Command {
	var totals intensity.HistoricalTotals

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Recompute benchmarks from historical activity",
		RunE: runWith(func(cmd *cobra.Command, cliCtx *CLIContext) (interface{}, error) {
			resp, err := cliCtx.Intensity.Calibrate(cmd.Context(), forecast.CalibrateRequest{HistoricalTotals: totals})
			if err != nil {
				return nil, err
			}
			return append(kvTable{{"result", resp.Result}}, benchmarkRows(resp.Config)...).withJSON(resp), nil
		}),
	}

	f := cmd.Flags()
	f.IntVar(&totals.ClosedDeals, "closed-deals", 0, "closed deals in the history")
	f.IntVar(&totals.TotalWeeks, "weeks", 0, "weeks covered by the history")
	f.IntVar(&totals.Touchpoints, "touchpoints", 0, "total touchpoints")
	f.IntVar(&totals.Meetings, "meetings", 0, "total meetings")
	f.IntVar(&totals.NewContacts, "new-contacts", 0, "total new contacts")
	f.IntVar(&totals.Proposals, "proposals", 0, "total proposals")
	f.IntVar(&totals.HighQualityTouchpoints, "hq-touchpoints", 0, "high-quality touchpoints")

	return cmd
}

func newIntensityTemperaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "temperatures",
		Short: "Classify every opportunity of the reference data",
		RunE: runWith(func(cmd *cobra.Command, cliCtx *CLIContext) (interface{}, error) {
			resp, err := cliCtx.Intensity.PortfolioTemperatures(cmd.Context())
			if err != nil {
				return nil, err
			}
			return temperaturesView{resp}, nil
		}),
	}
}

type temperaturesView struct {
	*forecast.PortfolioTemperatures
}

func (v temperaturesView) TableHeaders() []string {
	return []string{"OPPORTUNITY", "STAGE", "DAYS", "TEMPERATURE"}
}

func (v temperaturesView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Opportunities)+1)
	for _, o := range v.Opportunities {
		rows = append(rows, []string{o.OpportunityID, string(o.Stage), strconv.Itoa(o.Days), string(o.Temperature)})
	}
	rows = append(rows, []string{"ACTIVE", strconv.Itoa(v.Active), "", fmt.Sprintf("%d hot", v.Hot)})
	return rows
}

func newIntensityConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the intensity configuration in effect",
		RunE: runWith(func(cmd *cobra.Command, cliCtx *CLIContext) (interface{}, error) {
			cfg, err := cliCtx.Intensity.Config(cmd.Context())
			if err != nil {
				return nil, err
			}
			t := cfg.Thresholds
			rows := kvTable{
				{"hot_days", strconv.Itoa(t.HotDays)},
				{"warm_days", strconv.Itoa(t.WarmDays)},
				{"cool_days", strconv.Itoa(t.CoolDays)},
				{"cold_days", strconv.Itoa(t.ColdDays)},
			}
			return append(rows, benchmarkRows(cfg)...).withJSON(cfg), nil
		}),
	}
}

func benchmarkRows(cfg intensity.Config) kvTable {
	b := cfg.Benchmarks
	return kvTable{
		{"touchpoints_per_week", formatFloat(b.TouchpointsPerWeek)},
		{"meetings_per_week", formatFloat(b.MeetingsPerWeek)},
		{"new_contacts_per_week", formatFloat(b.NewContactsPerWeek)},
		{"proposals_per_week", formatFloat(b.ProposalsPerWeek)},
		{"high_quality_pct_target", formatFloat(b.HighQualityPctTarget)},
		{"touchpoints_per_active_opp", formatFloat(b.TouchpointsPerActiveOpp)},
	}
}

// kvTable renders FIELD/VALUE pairs.
type kvTable [][2]string

func (t kvTable) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

func (t kvTable) TableRows() [][]string {
	rows := make([][]string, len(t))
	for i, kv := range t {
		rows[i] = []string{kv[0], kv[1]}
	}
	return rows
}

func (t kvTable) withJSON(v interface{}) jsonTable {
	return jsonTable{kvTable: t, value: v}
}

// jsonTable is a kvTable that encodes as value in JSON output.
type jsonTable struct {
	kvTable
	value interface{}
}

func (t jsonTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

//Personal.AI order the ending
