package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgdatalabs/btopricer/internal/config"
	"github.com/sgdatalabs/btopricer/internal/state"
)

func testCommandConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Paths: config.Paths{
			DuckDBPath:    filepath.Join(dir, "test.duckdb"),
			ModelDir:      filepath.Join(dir, "model"),
			MetricsPath:   filepath.Join(dir, "metrics.json"),
			StatePath:     filepath.Join(dir, "state.db"),
			RawTable:      "raw_transactions",
			CleanTable:    "clean_transactions",
			FeaturesTable: "features",
		},
		Training: config.Training{
			Target:      "resale_price",
			TestSize:    0.2,
			RandomState: 42,
			ModelType:   "random_forest",
			NEstimators: 10,
		},
	}
}

func executeCommand(t *testing.T, cfg *config.Config, cmdFn func() *cobra.Command, args ...string) (string, error) {
	t.Helper()
	cmd := cmdFn()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(WithConfig(context.Background(), cfg))
	return out.String(), err
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"3 ROOM", "4 ROOM"}, splitList("3 ROOM, 4 ROOM"))
	assert.Equal(t, []string{"BEDOK"}, splitList("BEDOK,"))
	assert.Nil(t, splitList(""))
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3", "2026-08-29", "abc1234")
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "btopricer 1.2.3")
	assert.Contains(t, out.String(), "abc1234")
}

func TestETLCommand(t *testing.T) {
	cfg := testCommandConfig(t)

	csvPath := filepath.Join(t.TempDir(), "resale.csv")
	csv := "Month,Town,Flat Type,Storey Range,Floor Area (sqm),Resale Price\n" +
		"2023-01,BEDOK,4 ROOM,04 TO 06,95,450000\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o644))

	out, err := executeCommand(t, cfg, NewETLCommand, csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "ETL complete")
	assert.Contains(t, out, "1 files")

	runs, err := state.Open(cfg.Paths.StatePath)
	require.NoError(t, err)
	defer func() { _ = runs.Close() }()
	entries, err := runs.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, state.RunStatusSuccess, entries[0].Status)
}

func TestETLCommandRecordsFailure(t *testing.T) {
	cfg := testCommandConfig(t)

	_, err := executeCommand(t, cfg, NewETLCommand, filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	runs, err := state.Open(cfg.Paths.StatePath)
	require.NoError(t, err)
	defer func() { _ = runs.Close() }()
	entries, err := runs.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, state.RunStatusFailed, entries[0].Status)
	assert.NotEmpty(t, entries[0].Error)
}

func TestTrainCommandAfterETL(t *testing.T) {
	cfg := testCommandConfig(t)

	// Enough rows to split and fit.
	var csv bytes.Buffer
	csv.WriteString("Month,Town,Flat Type,Flat Model,Storey Range,Floor Area (sqm),Lease Commence Date,Resale Price\n")
	towns := []string{"BEDOK", "TAMPINES"}
	for i := 0; i < 30; i++ {
		month := "2023-01"
		if i%2 == 1 {
			month = "2023-07"
		}
		fmt.Fprintf(&csv, "%s,%s,4 ROOM,Improved,04 TO 06,%d,1990,%d\n",
			month, towns[i%2], 80+i%10, 400000+i*2000)
	}
	csvPath := filepath.Join(t.TempDir(), "resale.csv")
	require.NoError(t, os.WriteFile(csvPath, csv.Bytes(), 0o644))

	_, err := executeCommand(t, cfg, NewETLCommand, csvPath)
	require.NoError(t, err)

	out, err := executeCommand(t, cfg, NewTrainCommand)
	require.NoError(t, err)
	assert.Contains(t, out, "Model saved to")
	assert.Contains(t, out, "r2")

	assert.FileExists(t, cfg.Paths.MetricsPath)
}

func TestRunsCommandEmpty(t *testing.T) {
	cfg := testCommandConfig(t)

	out, err := executeCommand(t, cfg, NewRunsCommand)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet.")
}

func TestStatusCommandUntrained(t *testing.T) {
	cfg := testCommandConfig(t)

	out, err := executeCommand(t, cfg, NewStatusCommand)
	require.NoError(t, err)
	assert.Contains(t, out, "not trained")
}
