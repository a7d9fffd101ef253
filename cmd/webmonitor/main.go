// Package main provides the webmonitor command.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dukex/webmonitor/pkg/capture"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 3000

func main() {
	cmd := &cli.Command{
		Name:                  "webmonitor",
		Usage:                 "Capture scheduled screenshots of a list of websites",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL (file://dir, sqlite://path, postgres://...)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "screenshots-dir",
				Usage:   "Directory screenshots are written to",
				Value:   "./screenshots",
				Sources: cli.EnvVars("SCREENSHOTS_DIR"),
			},
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "IANA time zone the schedule is evaluated in (default: local)",
				Sources: cli.EnvVars("TIMEZONE", "TZ"),
			},
			&cli.DurationFlag{
				Name:    "capture-timeout",
				Usage:   "Navigation timeout for a single website",
				Value:   capture.DefaultTimeout,
				Sources: cli.EnvVars("CAPTURE_TIMEOUT"),
			},
			&cli.IntFlag{
				Name:    "viewport-width",
				Usage:   "Browser viewport width",
				Value:   capture.DefaultViewport.Width,
				Sources: cli.EnvVars("VIEWPORT_WIDTH"),
			},
			&cli.IntFlag{
				Name:    "viewport-height",
				Usage:   "Browser viewport height",
				Value:   capture.DefaultViewport.Height,
				Sources: cli.EnvVars("VIEWPORT_HEIGHT"),
			},
			&cli.StringFlag{
				Name:    "chrome-bin",
				Usage:   "Chrome/Chromium binary (downloaded automatically when empty)",
				Sources: cli.EnvVars("CHROME_BIN"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Commands: []*cli.Command{
			ServeCommand(),
			CaptureCommand(),
			ScheduleCommand(),
			ImportCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}

	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}

	return location, nil
}
