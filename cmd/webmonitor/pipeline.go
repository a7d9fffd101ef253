package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/webmonitor/pkg/batch"
	"github.com/dukex/webmonitor/pkg/capture"
	"github.com/dukex/webmonitor/pkg/cmd"
	"github.com/dukex/webmonitor/pkg/persistence"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

// pipeline is the part of the process shared by serve and capture.
type pipeline struct {
	persistence persistence.Persistence
	artifacts   *capture.Store
	runner      *batch.Runner
}

func newPipeline(ctx context.Context, logger *slog.Logger, command *cli.Command, tracer trace.Tracer) (*pipeline, error) {
	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, err
	}

	screenshotsDir := command.String("screenshots-dir")

	err = os.MkdirAll(screenshotsDir, 0o750)
	if err != nil {
		_ = store.Close(ctx)

		return nil, fmt.Errorf("failed to create screenshots directory: %w", err)
	}

	artifacts := capture.NewStore(screenshotsDir)

	browser := capture.NewRodBrowser(command.String("chrome-bin"))
	browser.Viewport = capture.Viewport{
		Width:  command.Int("viewport-width"),
		Height: command.Int("viewport-height"),
	}

	capturer := capture.NewCapturer(logger, browser, artifacts, capture.WithTimeout(command.Duration("capture-timeout")))

	return &pipeline{
		persistence: store,
		artifacts:   artifacts,
		runner:      batch.NewRunner(logger, capturer, tracer),
	}, nil
}

func (p *pipeline) Close(ctx context.Context, logger *slog.Logger) {
	err := p.persistence.Close(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
	}
}
