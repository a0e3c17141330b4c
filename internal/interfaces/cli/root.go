package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/pipeline-engine/internal/application/forecast"
	"github.com/turtacn/pipeline-engine/internal/config"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/database/redis"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/referencedata"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// nowFunc is the clock handed to the services.
var nowFunc = time.Now

// Output formats.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	DataPath     string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Snapshot     *referencedata.Snapshot
	Commission   forecast.CommissionService
	Intensity    forecast.IntensityService
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration

	closers []func() error
}

// Close releases connections opened during initialization.
func (c *CLIContext) Close() error {
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "pipelinectl",
		Short:   "Commission forecasting and engagement scoring for the CRM pipeline",
		Long:    "pipelinectl prices deals against tiered fee structures, aggregates forecast\nfees across the opportunity pipeline and scores engagement intensity.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cliCtx, err := GetCLIContext(cmd); err == nil {
				return cliCtx.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: PIPEFIN_* environment)")
	pf.StringVarP(&opts.DataPath, "data", "d", "", "reference data snapshot (overrides engine.reference_data_path)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputText, "output format (text, table, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "global operation timeout")

	cmd.AddCommand(
		newCommissionCmd(),
		newPipelineCmd(),
		newConvertCmd(),
		newIntensityCmd(),
	)

	return cmd
}

// persistentPreRun initializes config, logger, reference data and services,
// then stores the CLIContext on the command.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case OutputText, OutputTable, OutputJSON:
	default:
		return errors.InvalidParam(fmt.Sprintf("unknown output format %q", opts.OutputFormat))
	}

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "config initialization failed")
	}
	if opts.DataPath != "" {
		cfg.Engine.ReferenceDataPath = opts.DataPath
	}

	logger, err := initLogger(opts)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "logger initialization failed")
	}

	snap, err := loadSnapshot(cfg, logger)
	if err != nil {
		return err
	}

	policy, err := cfg.Engine.Policy()
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Snapshot:     snap,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		Timeout:      opts.Timeout,
	}

	store, err := initConfigStore(cfg, snap, logger, cliCtx)
	if err != nil {
		return err
	}

	src := referencedata.NewStatic(snap)
	svcOpts := []forecast.Option{forecast.WithLogger(logger), forecast.WithClock(nowFunc)}
	cliCtx.Commission = forecast.NewCommissionService(src, policy, svcOpts...)
	cliCtx.Intensity = forecast.NewIntensityService(src, store, svcOpts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initLogger creates a logger configured for CLI usage (output to stderr).
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := opts.LogLevel
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// loadSnapshot reads the configured reference data, or the built-in default
// fee structure with no rates or opportunities when no path is set.
func loadSnapshot(cfg *config.Config, logger logging.Logger) (*referencedata.Snapshot, error) {
	path := cfg.Engine.ReferenceDataPath
	if path == "" {
		logger.Warn("no reference data configured, using built-in defaults")
		return referencedata.Default(), nil
	}
	snap, err := referencedata.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("reference data loaded",
		logging.String("path", path),
		logging.Int("structures", len(snap.FeeStructures)),
		logging.Int("opportunities", len(snap.Opportunities)))
	return snap, nil
}

// initConfigStore returns the Redis store when enabled, else an in-memory
// store seeded from the snapshot.
func initConfigStore(cfg *config.Config, snap *referencedata.Snapshot, logger logging.Logger, cliCtx *CLIContext) (forecast.ConfigStore, error) {
	seed := snap.IntensityConfig(cfg.Intensity)
	if !cfg.Redis.Enabled {
		return forecast.NewMemoryConfigStore(seed), nil
	}
	client, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return nil, err
	}
	cliCtx.closers = append(cliCtx.closers, client.Close)
	return redis.NewIntensityConfigStore(client, seed, logger), nil
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}

	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}

	return cliCtx, nil
}

// commandContext returns the command's context bounded by --timeout.
func commandContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if cliCtx.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cliCtx.Timeout)
}

// Execute is the main entry point for the CLI application.  It returns the
// process exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		if errors.IsClientError(errors.GetCode(err)) {
			return 2
		}
		return 1
	}

	return 0
}

// tableProvider is implemented by results with a tabular text rendering.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch cliCtx.OutputFormat {
	case OutputJSON:
		return printJSON(cmd, data)
	default:
		return printTable(cmd, data)
	}
}

// printJSON outputs data as indented JSON to stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printText outputs data as a simple string representation to stdout.
func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// printTable outputs data as a table if it implements tableProvider,
// otherwise falls back to text.
func printTable(cmd *cobra.Command, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr.  Incomplete
// reference data is reported the way the API reports it.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error [%s]: %s\n", code, errors.UserMessage(err))
	if errors.IsConfigurationIncomplete(err) {
		fmt.Fprintf(cmd.ErrOrStderr(), "  cause: %s\n", err.Error())
	}
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			if i == len(headers)-1 {
				sb.WriteString(val)
			} else {
				sb.WriteString(padRight(val, colWidths[i]))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(colWidths))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}

	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
