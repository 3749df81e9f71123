package commands

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sgdatalabs/btopricer/internal/state"
)

// NewRunsCommand creates the runs command listing recent pipeline runs.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ETL and training runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ConfigFrom(cmd.Context())

			runs, err := state.Open(cfg.Paths.StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = runs.Close() }()

			entries, err := runs.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cmd.Println("No runs recorded yet.")
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Started", "Kind", "Status", "Summary", "Error"})
			for _, run := range entries {
				tw.AppendRow(table.Row{
					run.StartedAt.Format(time.RFC3339),
					run.Kind,
					run.Status,
					run.Summary,
					run.Error,
				})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}
