package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sgdatalabs/btopricer/internal/state"
	"github.com/sgdatalabs/btopricer/internal/train"
)

// NewTrainCommand creates the train command.
func NewTrainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the resale price model from the feature table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := ConfigFrom(ctx)
			logger := LoggerFrom(ctx)

			runs, err := state.Open(cfg.Paths.StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = runs.Close() }()

			run, err := runs.StartRun(state.RunKindTrain)
			if err != nil {
				return err
			}

			modelPath, metrics, err := train.NewTrainer(cfg, logger).Train(ctx)
			if err != nil {
				_ = runs.CompleteRun(run.ID, state.RunStatusFailed, err.Error(), "")
				return err
			}

			summary := fmt.Sprintf("%s: mae=%.0f r2=%.4f", cfg.Training.ModelType, metrics.MAE, metrics.R2)
			if err := runs.CompleteRun(run.ID, state.RunStatusSuccess, "", summary); err != nil {
				return err
			}

			cmd.Printf("Model saved to %s\n\n", modelPath)

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Metric", "Value"})
			tw.AppendRows([]table.Row{
				{"model_type", cfg.Training.ModelType},
				{"n_train", metrics.NTrain},
				{"n_test", metrics.NTest},
				{"mae", fmt.Sprintf("%.2f", metrics.MAE)},
				{"r2", fmt.Sprintf("%.4f", metrics.R2)},
			})
			tw.Render()
			return nil
		},
	}
}
