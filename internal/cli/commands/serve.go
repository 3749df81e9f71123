package commands

import (
	"github.com/spf13/cobra"

	"github.com/sgdatalabs/btopricer/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction and analysis HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := ConfigFrom(ctx)
			logger := LoggerFrom(ctx)

			return api.NewServer(cfg, logger).Serve(ctx)
		},
	}

	// Picked up by the config loader as api.host / api.port overrides.
	cmd.Flags().String("host", "", "Bind address (overrides config)")
	cmd.Flags().Int("port", 0, "Listen port (overrides config)")
	return cmd
}
