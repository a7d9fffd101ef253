package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dukex/webmonitor/pkg/cmd"
	"github.com/dukex/webmonitor/pkg/log"
	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence"
	cli "github.com/urfave/cli/v3"
)

func ScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Inspect or edit the stored capture schedule",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the schedule and the next fire time of each entry",
				Action: withPersistence(showSchedule),
			},
			{
				Name:      "set",
				Usage:     "Replace the schedule, e.g. schedule set 1=09:00 5=17:30",
				ArgsUsage: "weekday=HH:MM...",
				Action:    withPersistence(setSchedule),
			},
			{
				Name:   "clear",
				Usage:  "Remove every entry, which deactivates the scheduler",
				Action: withPersistence(clearSchedule),
			},
		},
	}
}

type persistenceAction func(ctx context.Context, command *cli.Command, p persistence.Persistence) error

func withPersistence(action persistenceAction) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		log.Setup(command.String("log-level"), command.String("log-format"))
		logger := log.WithModule("schedule")

		p, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
		if err != nil {
			return err
		}

		defer func() {
			if closeErr := p.Close(ctx); closeErr != nil {
				logger.ErrorContext(ctx, "Failed to close persistence", "error", closeErr)
			}
		}()

		return action(ctx, command, p)
	}
}

func showSchedule(ctx context.Context, command *cli.Command, p persistence.Persistence) error {
	location, err := loadLocation(command.String("timezone"))
	if err != nil {
		return err
	}

	schedule, err := p.Schedule(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	return printSchedule(command.Root().Writer, schedule, time.Now().In(location))
}

func setSchedule(ctx context.Context, command *cli.Command, p persistence.Persistence) error {
	schedule, err := parseScheduleArgs(command.Args().Slice())
	if err != nil {
		return err
	}

	err = p.SaveSchedule(ctx, schedule)
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	location, err := loadLocation(command.String("timezone"))
	if err != nil {
		return err
	}

	return printSchedule(command.Root().Writer, schedule, time.Now().In(location))
}

func clearSchedule(ctx context.Context, _ *cli.Command, p persistence.Persistence) error {
	err := p.SaveSchedule(ctx, models.Schedule{})
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	return nil
}

// parseScheduleArgs turns "weekday=HH:MM" arguments into a schedule. Unlike
// the HTTP API, malformed entries and repeated weekdays are reported instead
// of dropped.
func parseScheduleArgs(args []string) (models.Schedule, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("expected at least one weekday=HH:MM argument")
	}

	schedule := make(models.Schedule, len(args))

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid entry %q: expected weekday=HH:MM", arg)
		}

		weekday, err := models.ParseWeekday(key)
		if err != nil {
			return nil, err
		}

		_, _, err = models.ParseTimeOfDay(value)
		if err != nil {
			return nil, err
		}

		if previous, ok := schedule[weekday]; ok {
			return nil, fmt.Errorf("weekday %d given twice (%s and %s)", weekday, previous, value)
		}

		schedule[weekday] = value
	}

	return schedule, nil
}

func printSchedule(w io.Writer, schedule models.Schedule, now time.Time) error {
	entries := schedule.Entries()
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No schedule configured")

		return err
	}

	for _, entry := range entries {
		next, err := entry.Next(now)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, "%-9s %5s  next %s\n", entry.DayName(), entry.Time, next.Format(time.RFC3339))
		if err != nil {
			return err
		}
	}

	return nil
}
