package ctl

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	domain "github.com/oshokin/alarmify/internal/domain/alarm"
)

// timeLayout renders due instants in listings.
const timeLayout = "Mon 02 Jan 15:04"

// Add schedules an alarm and prints its next trigger.
func (c *Commands) Add(ctx context.Context, req domain.Request) error {
	if _, unknown := domain.ParseWeekdays(req.Weekdays); len(unknown) > 0 {
		c.printf("%s\n", c.warning.Render("Ignoring unknown weekdays: "+strings.Join(unknown, ", ")))
	}

	view, err := c.client.AddAlarm(ctx, req)
	if err != nil {
		return err
	}

	c.printf("%s %s %s (%s)\n",
		c.success.Render("Alarm added:"),
		view.Request.Time,
		view.Request.Content.Label(),
		view.Schedule,
	)

	if !view.NextTrigger.IsZero() {
		c.printf("Next trigger %s, %s\n",
			view.NextTrigger.Local().Format(timeLayout),
			domain.FormatUntil(view.NextTrigger.Sub(c.now())),
		)
	}

	c.printf("%s\n", c.muted.Render("id: "+view.Request.ID))

	return nil
}

// Remove drops an alarm. target is either an "HH:MM" time or an alarm id.
func (c *Commands) Remove(ctx context.Context, target string) error {
	var (
		removed bool
		err     error
	)

	if _, parseErr := domain.ParseClock(target); parseErr == nil {
		removed, err = c.client.RemoveAlarm(ctx, target)
	} else {
		removed, err = c.client.RemoveAlarmByID(ctx, target)
	}

	if err != nil {
		return err
	}

	if !removed {
		c.printf("%s\n", c.warning.Render("No alarm matches "+target))

		return nil
	}

	c.printf("%s %s\n", c.success.Render("Alarm removed:"), target)

	return nil
}

// Clear drops every alarm.
func (c *Commands) Clear(ctx context.Context) error {
	n, err := c.client.ClearAlarms(ctx)
	if err != nil {
		return err
	}

	c.printf("%s\n", c.success.Render(fmt.Sprintf("Removed %d alarm(s)", n)))

	return nil
}

// List prints every alarm as a table.
func (c *Commands) List(ctx context.Context) error {
	views, err := c.client.ListAlarms(ctx)
	if err != nil {
		return err
	}

	if len(views) == 0 {
		c.printf("No alarms scheduled\n")

		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, c.heading.Render("TIME\tDAYS\tVOLUME\tFADE-IN\tCONTENT\tNEXT\tID"))

	for _, v := range views {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			v.Request.Time,
			v.Schedule,
			v.Request.Volume,
			fadeLabel(v.Request.FadeIn),
			v.Request.Content.Label(),
			c.nextLabel(v.NextTrigger),
			v.Request.ID,
		)
	}

	return w.Flush()
}

// Upcoming prints each firing within the next days, soonest first.
func (c *Commands) Upcoming(ctx context.Context, days int) error {
	items, err := c.client.Upcoming(ctx, days)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		c.printf("Nothing scheduled\n")

		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)

	for _, item := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n",
			item.At.Local().Format(timeLayout),
			item.Alarm.Request.Content.Label(),
			c.muted.Render(item.Alarm.Request.ID),
		)
	}

	return w.Flush()
}

// Next prints how long until the soonest alarm.
func (c *Commands) Next(ctx context.Context) error {
	display, err := c.client.NextTrigger(ctx)
	if err != nil {
		return err
	}

	if display == "" {
		c.printf("No alarms scheduled\n")

		return nil
	}

	c.printf("Next alarm %s\n", display)

	return nil
}

// Snooze silences a ringing alarm for minutes.
func (c *Commands) Snooze(ctx context.Context, alarmID string, minutes int) error {
	entry, err := c.client.Snooze(ctx, alarmID, minutes)
	if err != nil {
		return err
	}

	c.printf("%s %s until %s\n",
		c.success.Render("Snoozed"),
		entry.Snapshot.Content.Label(),
		entry.FireAt.Local().Format("15:04"),
	)

	return nil
}

// Snoozes prints the pending snoozes.
func (c *Commands) Snoozes(ctx context.Context) error {
	entries, err := c.client.ListSnoozes(ctx)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		c.printf("No active snoozes\n")

		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, c.heading.Render("FIRES\tALARM\tCONTENT\tSNOOZE"))

	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.nextLabel(e.FireAt),
			e.Snapshot.AlarmID,
			e.Snapshot.Content.Label(),
			e.ID,
		)
	}

	return w.Flush()
}

// Dismiss ends a ringing alarm.
func (c *Commands) Dismiss(ctx context.Context, alarmID string) error {
	ringing, err := c.client.Dismiss(ctx, alarmID)
	if err != nil {
		return err
	}

	if !ringing {
		c.printf("%s\n", c.warning.Render(alarmID+" was not ringing"))

		return nil
	}

	c.printf("%s %s\n", c.success.Render("Dismissed"), alarmID)

	return nil
}

func (c *Commands) nextLabel(at time.Time) string {
	if at.IsZero() {
		return "-"
	}

	return at.Local().Format(timeLayout) + " (" + domain.FormatUntil(at.Sub(c.now())) + ")"
}

func fadeLabel(f domain.FadeIn) string {
	if !f.Enabled {
		return "off"
	}

	return fmt.Sprintf("%dm", f.Minutes)
}
