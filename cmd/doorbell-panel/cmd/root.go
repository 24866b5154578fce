package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/doorbell-panel/internal/config"
	"github.com/oshokin/doorbell-panel/internal/service/panel"
	"github.com/oshokin/doorbell-panel/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command running the panel coordinator.
	rootCmd = &cobra.Command{
		Use:   "doorbell-panel",
		Short: "Run the smart doorbell panel coordinator.",
		Long: `Starts the doorbell panel that merges MQTT doorbell, motion and message
events, AirPlay metadata and the two rotary encoders into one stream and
drives the OLED, the HDMI output and the alert sounds.

All hardware and broker settings come from the configuration file. The
process runs until SIGTERM or SIGINT and shuts the displays down cleanly.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &panel.Options{
				ConfigPath: configPath,
			}

			return panel.Run(ctx, options)
		},
	}
)

// Execute runs the doorbell-panel CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
