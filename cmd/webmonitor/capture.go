package main

import (
	"context"
	"fmt"

	"github.com/dukex/webmonitor/pkg/log"
	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

func CaptureCommand() *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Capture the given URLs, or the stored website list, once",
		ArgsUsage: "[url...]",
		Action:    captureOnce,
	}
}

func captureOnce(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))
	logger := log.WithModule("capture")

	p, err := newPipeline(ctx, logger, command, otelhelper.NoopTracer())
	if err != nil {
		return err
	}
	defer p.Close(ctx, logger)

	urls, err := captureTargets(ctx, p, command.Args().Slice())
	if err != nil {
		return err
	}

	if len(urls) == 0 {
		return fmt.Errorf("no websites configured")
	}

	result := p.runner.Run(ctx, models.RunSourceCLI, urls)

	for _, outcome := range result.Outcomes {
		if outcome.Success {
			fmt.Fprintf(command.Root().Writer, "ok    %s %s\n", outcome.URL, outcome.Path)
		} else {
			fmt.Fprintf(command.Root().Writer, "fail  %s %s\n", outcome.URL, outcome.Error)
		}
	}

	if result.Successful != result.Total {
		return fmt.Errorf("%d of %d captures failed", result.Total-result.Successful, result.Total)
	}

	return nil
}

func captureTargets(ctx context.Context, p *pipeline, args []string) ([]string, error) {
	if len(args) == 0 {
		urls, err := p.persistence.Websites(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load websites: %w", err)
		}

		return urls, nil
	}

	urls := make([]string, 0, len(args))

	for _, arg := range args {
		url, err := models.NormalizeWebsiteURL(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}

		urls = append(urls, url)
	}

	return urls, nil
}
