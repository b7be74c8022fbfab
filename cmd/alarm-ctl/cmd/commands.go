package cmd

import (
	"context"

	"github.com/spf13/cobra"

	domain "github.com/oshokin/alarmify/internal/domain/alarm"
	"github.com/oshokin/alarmify/internal/service/ctl"
)

const (
	// defaultVolume is the target volume of new alarms.
	defaultVolume = 50
	// defaultSnoozeMinutes is the snooze length when none is given.
	defaultSnoozeMinutes = 9
	// defaultUpcomingDays is the listing horizon of the upcoming command.
	defaultUpcomingDays = 7
)

func newAddCommand() *cobra.Command {
	var (
		name   string
		volume int
		fadeIn int
		days   []string
	)

	cmd := &cobra.Command{
		Use:   "add HH:MM CONTENT",
		Short: "Add a recurring alarm.",
		Long: `Adds an alarm that plays CONTENT at HH:MM (24-hour clock).

Days accept full names, three-letter abbreviations, "weekdays", "weekends" and
"daily"; without --days the alarm fires every day. Adding an alarm with the same
time and content replaces the existing one.`,
		Example: `  alarm-ctl add 07:30 playlist:morning --days weekdays --fade-in 5
  alarm-ctl add 09:00 track:42 --name "Weekend" --days sat,sun --volume 30`,
		Args: cobra.ExactArgs(2),
		RunE: withCommands(func(ctx context.Context, c *ctl.Commands, args []string) error {
			return c.Add(ctx, domain.Request{
				Time:    args[0],
				Content: domain.Content{Ref: args[1], Name: name},
				Volume:  volume,
				FadeIn: domain.FadeIn{
					Enabled: fadeIn > 0,
					Minutes: fadeIn,
				},
				Weekdays: days,
			})
		}),
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name of the content")
	cmd.Flags().IntVarP(&volume, "volume", "v", defaultVolume, "target volume 0..100")
	cmd.Flags().IntVarP(&fadeIn, "fade-in", "f", 0, "fade-in duration in minutes, 0 disables")
	cmd.Flags().StringSliceVarP(&days, "days", "d", nil, "days the alarm fires on, comma separated")

	return cmd
}

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove HH:MM|ID",
		Short: "Remove an alarm by time or id.",
		Args:  cobra.ExactArgs(1),
		RunE: withCommands(func(ctx context.Context, c *ctl.Commands, args []string) error {
			return c.Remove(ctx, args[0])
		}),
	}
}

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every alarm.",
		Args:  cobra.NoArgs,
		RunE: withCommands(func(ctx context.Context, c *ctl.Commands, _ []string) error {
			return c.Clear(ctx)
		}),
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every alarm.",
		Args:  cobra.NoArgs,
		RunE: withCommands(func(ctx context.Context, c *ctl.Commands, _ []string) error {
			return c.List(ctx)
		}),
	}
}

func newUpcomingCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List the firings of the coming days.",
		Args:  cobra.NoArgs,
		RunE: withCommands(func(ctx context.Context, c *ctl.Commands, _ []string) error {
			return c.Upcoming(ctx, days)
		}),
	}

	cmd.Flags().IntVarP(&days, "days", "d", defaultUpcomingDays, "how many days ahead to look")

	return cmd
}

func newNextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show when the next alarm fires.",
		Args:  cobra.NoArgs,
		RunE: withCommands(func(ctx context.Context, c *ctl.Commands, _ []string) error {
			return c.Next(ctx)
		}),
	}
}

func newSnoozeCommand() *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "snooze ALARM_ID",
		Short: "Silence a ringing alarm and replay it later.",
		Args:  cobra.ExactArgs(1),
		RunE: withCommands(func(ctx context.Context, c *ctl.Commands, args []string) error {
			return c.Snooze(ctx, args[0], minutes)
		}),
	}

	cmd.Flags().IntVarP(&minutes, "minutes", "m", defaultSnoozeMinutes, "snooze length in minutes")

	return cmd
}

func newSnoozesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "snoozes",
		Short: "List pending snoozes.",
		Args:  cobra.NoArgs,
		RunE: withCommands(func(ctx context.Context, c *ctl.Commands, _ []string) error {
			return c.Snoozes(ctx)
		}),
	}
}

func newDismissCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss ALARM_ID",
		Short: "Stop a ringing alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: withCommands(func(ctx context.Context, c *ctl.Commands, args []string) error {
			return c.Dismiss(ctx, args[0])
		}),
	}
}
