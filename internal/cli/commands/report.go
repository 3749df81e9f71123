package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sgdatalabs/btopricer/internal/narrate"
	"github.com/sgdatalabs/btopricer/internal/report"
)

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	var (
		owns      string
		flatTypes string
		lowFloor  float64
		midFloor  float64
		highFloor float64
		limit     int
		output    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a Markdown BTO price-band report",
		Long: `Generate a Markdown report with low/mid/high price bands per town and
flat type. Without --owns, towns are auto-recommended by ascending
recent transaction volume.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := ConfigFrom(ctx)
			logger := LoggerFrom(ctx)

			gen := report.NewGenerator(cfg, narrate.NewService(cfg.LLM, logger), logger)
			_, err := gen.Generate(ctx, report.Options{
				Towns:      splitList(owns),
				FlatTypes:  splitList(flatTypes),
				Floors:     report.Floors{Low: lowFloor, Mid: midFloor, High: highFloor},
				Limit:      limit,
				OutputPath: output,
			})
			if err != nil {
				return err
			}

			cmd.Printf("Report written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&owns, "owns", "", "Comma-separated towns to analyze (default: auto-recommend)")
	cmd.Flags().StringVar(&flatTypes, "flat-types", "3 ROOM,4 ROOM", "Comma-separated flat types")
	cmd.Flags().Float64Var(&lowFloor, "low-floor", 5, "Floor midpoint for the low band")
	cmd.Flags().Float64Var(&midFloor, "mid-floor", 12, "Floor midpoint for the mid band")
	cmd.Flags().Float64Var(&highFloor, "high-floor", 25, "Floor midpoint for the high band")
	cmd.Flags().IntVar(&limit, "limit", 5, "Number of towns to auto-recommend")
	cmd.Flags().StringVar(&output, "output", "artifacts/bto_report.md", "Output path for the Markdown report")
	return cmd
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
