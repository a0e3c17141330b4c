package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pipeline-engine/pkg/errors"
)

var fixturePath = filepath.Join("..", "..", "infrastructure", "referencedata", "testdata", "snapshot.yaml")

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = prev })

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func runJSON(t *testing.T, dst interface{}, args ...string) {
	t.Helper()
	out, _, err := run(t, append(args, "--data", fixturePath, "-o", "json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), dst), out)
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "pipelinectl", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"commission", "pipeline", "convert", "intensity"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "data", "log-level", "output", "verbose", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}
	assert.Equal(t, OutputText, cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestIntensityCommand_Subcommands(t *testing.T) {
	cmd := newIntensityCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"score", "classify", "required", "health", "calibrate", "temperatures", "config"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRoot_UnknownOutputFormat(t *testing.T) {
	_, _, err := run(t, "commission", "--deal", "10", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBadRequest, errors.GetCode(err))
}

func TestRoot_MissingDataFile(t *testing.T) {
	_, _, err := run(t, "pipeline", "--data", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetCode(err))
}

func TestCommission_JSON(t *testing.T) {
	var body map[string]interface{}
	runJSON(t, &body, "commission", "--deal", "50")

	assert.Equal(t, "asch-default", body["structure_id"])
	assert.Equal(t, 1.4, body["gross_fee"])
	assert.Equal(t, "default", body["resolved_by"])
}

func TestCommission_TextTable(t *testing.T) {
	out, _, err := run(t, "commission", "--deal", "100", "--country", "CO", "--data", fixturePath)
	require.NoError(t, err)

	assert.Contains(t, out, "TIER")
	assert.Contains(t, out, "GROSS")
	assert.Contains(t, out, "colombia-flat (country)")
	assert.Contains(t, out, "net/standard*")
	assert.Contains(t, out, "2.5%")
}

func TestCommission_Errors(t *testing.T) {
	_, _, err := run(t, "commission", "--deal", "-1")
	assert.Equal(t, errors.ErrCodeNegativeDealValue, errors.GetCode(err))

	_, _, err = run(t, "commission", "--deal", "ten")
	assert.Equal(t, errors.ErrCodeBadRequest, errors.GetCode(err))

	_, _, err = run(t, "commission")
	assert.Error(t, err)
}

func TestPipeline_SkipFailures(t *testing.T) {
	var body map[string]interface{}
	runJSON(t, &body, "pipeline", "--skip-failures")

	assert.Equal(t, "skip", body["policy"])
	assert.Equal(t, 2.65, body["total_gross_fees"])
	assert.Equal(t, 1.2, body["total_weighted_fees"])
	assert.Equal(t, float64(1), body["excluded"])
	assert.NotEmpty(t, body["run_id"])
}

func TestPipeline_TextTable(t *testing.T) {
	out, _, err := run(t, "pipeline", "--data", fixturePath)
	require.NoError(t, err)
	assert.Contains(t, out, "opp-1")
	assert.Contains(t, out, "opp-2")
	assert.NotContains(t, out, "opp-3")
	assert.Contains(t, out, "1 excluded")
}

func TestPipeline_InvalidPolicy(t *testing.T) {
	_, _, err := run(t, "pipeline", "--policy", "retry", "--data", fixturePath)
	assert.Equal(t, errors.ErrCodeBadRequest, errors.GetCode(err))
}

func TestConvert(t *testing.T) {
	out, _, err := run(t, "convert", "--amount", "4000", "--from", "COP", "--data", fixturePath)
	require.NoError(t, err)
	assert.Equal(t, "4000 COP = 1 USD\n", out)

	_, _, err = run(t, "convert", "--amount", "10", "--from", "EUR", "--to", "USD", "--data", fixturePath)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationIncomplete(err))

	_, _, err = run(t, "convert", "--from", "COP")
	assert.Error(t, err)

	_, _, err = run(t, "convert", "--amount", "ten", "--from", "COP")
	assert.Equal(t, errors.ErrCodeBadRequest, errors.GetCode(err))
}

func TestIntensity_Required(t *testing.T) {
	var body map[string]int
	runJSON(t, &body, "intensity", "required", "--weeks", "13")
	assert.Equal(t, map[string]int{"touchpoints": 10, "meetings": 3, "new_contacts": 2, "proposals": 1, "weeks_remaining": 13}, body)

	runJSON(t, &body, "intensity", "required", "--weeks", "13", "--touchpoints", "13")
	assert.Equal(t, 13, body["touchpoints"])
	assert.Equal(t, 0, body["meetings"])

	runJSON(t, &body, "intensity", "required", "--weeks", "14")
	assert.Equal(t, map[string]int{"touchpoints": 10, "meetings": 3, "new_contacts": 2, "proposals": 1, "weeks_remaining": 14}, body)
}

func TestIntensity_ClassifyText(t *testing.T) {
	out, _, err := run(t, "intensity", "classify", "--days", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "temperature  hot")

	out, _, err = run(t, "intensity", "classify", "--days", "3", "--stage", "won")
	require.NoError(t, err)
	assert.Contains(t, out, "dormant")
}

func TestIntensity_Score(t *testing.T) {
	var body map[string]interface{}
	runJSON(t, &body, "intensity", "score", "--touchpoints", "4", "--days", "0", "--hq-pct", "0.4")
	assert.Equal(t, "hot", body["temperature"])
	assert.Greater(t, body["score"].(float64), float64(90))

	runJSON(t, &body, "intensity", "score", "--touchpoints", "8", "--expected", "0", "--days", "200")
	assert.Equal(t, 0.0, body["frequency"])
	assert.Equal(t, 0.0, body["score"])
}

func TestIntensity_Temperatures(t *testing.T) {
	var body struct {
		Hot    int `json:"hot"`
		Active int `json:"active"`
	}
	runJSON(t, &body, "intensity", "temperatures")
	assert.Equal(t, 1, body.Hot)
	assert.Equal(t, 2, body.Active)
}

func TestIntensity_HealthFromPortfolio(t *testing.T) {
	var body map[string]interface{}
	runJSON(t, &body, "intensity", "health", "--actual", "10")
	assert.Equal(t, "healthy", body["grade"])
	assert.Equal(t, 0.5, body["hot_ratio"])
}

func TestIntensity_CalibrateSkipped(t *testing.T) {
	var body map[string]interface{}
	runJSON(t, &body, "intensity", "calibrate")
	assert.Equal(t, "skipped", body["result"])
}

func TestFormatTable(t *testing.T) {
	got := FormatTable([]string{"A", "LONG"}, [][]string{{"xyz", "1"}, {"q"}})
	want := "A    LONG\n---  ----\nxyz  1\nq    \n"
	assert.Equal(t, want, got)
	assert.Empty(t, FormatTable(nil, nil))
}

func TestPrintError(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetErr(&buf)

	PrintError(cmd, errors.New(errors.ErrCodeNoFeeStructure, "no fee structure found").WithDetail("country XX"))
	assert.True(t, strings.HasPrefix(buf.String(), "Error [FEE_001]: pipeline configuration incomplete\n"))
	assert.Contains(t, buf.String(), "cause:")

	buf.Reset()
	PrintError(cmd, assert.AnError)
	assert.Equal(t, "Error: "+assert.AnError.Error()+"\n", buf.String())

	buf.Reset()
	PrintError(cmd, nil)
	assert.Empty(t, buf.String())
}

//Personal.AI order the ending
