package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarmify/internal/config"
	"github.com/oshokin/alarmify/internal/service/ctl"
	"github.com/oshokin/alarmify/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the daemon address from the configuration.
	serverAddress string

	// rootCmd represents the base command for controlling the daemon.
	rootCmd = &cobra.Command{
		Use:   "alarm-ctl",
		Short: "Manage alarms of a running alarm daemon.",
		Long: `Adds, removes and lists alarms of a running alarm-daemon, and snoozes or
dismisses a ringing alarm.

The daemon address is read from the configuration file unless --server is given.`,
		SilenceUsage: true,
	}
)

// Execute runs the alarm-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withCommands connects to the daemon for the duration of one command.
func withCommands(run func(ctx context.Context, c *ctl.Commands, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		client, err := ctl.Connect(ctx, &ctl.Options{
			ConfigPath:    cfgPath,
			ServerAddress: serverAddress,
		})
		if err != nil {
			return err
		}

		// Close connection on function exit.
		defer func() {
			_ = client.Close()
		}()

		return run(ctx, ctl.New(client, cmd.OutOrStdout()), args)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "a", "", "daemon address (overrides config)")

	rootCmd.AddCommand(
		newAddCommand(),
		newRemoveCommand(),
		newClearCommand(),
		newListCommand(),
		newUpcomingCommand(),
		newNextCommand(),
		newSnoozeCommand(),
		newSnoozesCommand(),
		newDismissCommand(),
	)
}
