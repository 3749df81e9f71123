package commands

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sgdatalabs/btopricer/internal/model"
	"github.com/sgdatalabs/btopricer/internal/store"
	"github.com/sgdatalabs/btopricer/internal/train"
)

// NewStatusCommand creates the status command, summarizing data coverage
// and the current model artifact.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show data coverage and model artifact status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := ConfigFrom(ctx)

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Item", "Value"})

			st, err := store.OpenReadOnly(ctx, cfg.Paths)
			if err != nil {
				tw.AppendRow(table.Row{"data", "no store (run etl first)"})
			} else {
				defer func() { _ = st.Close() }()
				snap, err := st.DataSnapshot(ctx)
				if err != nil {
					tw.AppendRow(table.Row{"data", "no clean table (run etl first)"})
				} else {
					tw.AppendRow(table.Row{"clean rows", snap.Rows})
					if snap.MinYear.Valid && snap.MaxYear.Valid {
						tw.AppendRow(table.Row{"year range",
							fmt.Sprintf("%d-%d", snap.MinYear.Int64, snap.MaxYear.Int64)})
					}
				}
			}

			modelPath := model.PipelinePath(cfg.Paths.ModelDir)
			if fp, err := fileFingerprint(modelPath); err == nil {
				tw.AppendRow(table.Row{"model", modelPath})
				tw.AppendRow(table.Row{"model fingerprint", fp})
			} else {
				tw.AppendRow(table.Row{"model", "not trained"})
			}

			metrics, err := train.LoadMetrics(cfg.Paths.MetricsPath)
			switch {
			case err == nil:
				tw.AppendRow(table.Row{"trained at", metrics.Timestamp})
				tw.AppendRow(table.Row{"mae", fmt.Sprintf("%.2f", metrics.MAE)})
				tw.AppendRow(table.Row{"r2", fmt.Sprintf("%.4f", metrics.R2)})
			case errors.Is(err, model.ErrNotTrained):
				tw.AppendRow(table.Row{"metrics", "none"})
			default:
				return err
			}

			tw.Render()
			return nil
		},
	}
}

// fileFingerprint returns a short sha256 digest of the file contents,
// used to tell model artifacts apart across retrains.
func fileFingerprint(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%x", sum[:8]), nil
}
