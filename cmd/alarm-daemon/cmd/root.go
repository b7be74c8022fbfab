package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarmify/internal/config"
	"github.com/oshokin/alarmify/internal/service/daemon"
	"github.com/oshokin/alarmify/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where alarm definitions are persisted.
	stateFile string

	// rootCmd represents the base command for running the alarm daemon.
	rootCmd = &cobra.Command{
		Use:   "alarm-daemon [listen-address]",
		Short: "Run the alarm engine and serve it over gRPC.",
		Long: `Starts the alarm engine: alarms fire on their weekdays, playback is retried
with backoff, the device is woken ahead of time and monitored after firing.

The daemon listens on the configured server address unless a listen address is
given as argument (e.g., :9090, 127.0.0.1:50070).
Alarm definitions are persisted to a JSON file and restored on start; edits to
that file made by other programs are picked up while the daemon runs.
Only one daemon may run on a machine.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &daemon.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StateFile:     stateFile,
			}

			return daemon.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-daemon CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&stateFile, "state-file", "s", "", "path to persist alarm definitions (overrides config)")
}
