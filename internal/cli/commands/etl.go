package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgdatalabs/btopricer/internal/etl"
	"github.com/sgdatalabs/btopricer/internal/state"
)

// NewETLCommand creates the etl command.
func NewETLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "etl [files...]",
		Short: "Ingest resale CSV files into the analytical store",
		Long: `Ingest HDB resale CSV files into DuckDB and rebuild the clean and
feature tables. Without arguments, all *.csv files in the working
directory are loaded. The raw table is cleared first, so re-running
with the same inputs reproduces the same state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFrom(ctx)
			logger := LoggerFrom(ctx)

			runs, err := state.Open(cfg.Paths.StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = runs.Close() }()

			run, err := runs.StartRun(state.RunKindETL)
			if err != nil {
				return err
			}

			result, err := etl.NewPipeline(cfg, logger).Run(ctx, args)
			if err != nil {
				_ = runs.CompleteRun(run.ID, state.RunStatusFailed, err.Error(), "")
				return err
			}

			summary := fmt.Sprintf("%d files, %d raw, %d clean, %d feature rows",
				result.Files, result.RawRows, result.CleanRows, result.FeatureRows)
			if err := runs.CompleteRun(run.ID, state.RunStatusSuccess, "", summary); err != nil {
				return err
			}

			cmd.Printf("ETL complete: %s\n", summary)
			return nil
		},
	}
}
