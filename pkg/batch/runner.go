// Package batch runs the capture of a URL list one URL at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/otelhelper"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Capturer captures a single URL. Implementations report every failure in
// the returned outcome.
type Capturer interface {
	Capture(ctx context.Context, url string) models.CaptureOutcome
}

type Runner struct {
	capturer Capturer
	tracer   trace.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunner(logger *slog.Logger, capturer Capturer, tracer trace.Tracer) *Runner {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Runner{
		capturer: capturer,
		tracer:   tracer,
		logger:   logger.With("module", "batch"),
		now:      time.Now,
	}
}

// NewRunID returns an identifier for a batch run.
func NewRunID() string {
	return uuid.NewString()
}

// Run captures urls in order under a new run ID.
func (r *Runner) Run(ctx context.Context, source models.RunSource, urls []string) models.BatchResult {
	return r.RunWithID(ctx, NewRunID(), source, urls)
}

// RunWithID captures urls strictly one after another and returns one outcome
// per URL in input order. A failed URL never stops the batch.
func (r *Runner) RunWithID(ctx context.Context, runID string, source models.RunSource, urls []string) models.BatchResult {
	logger := r.logger.With("run_id", runID, "source", string(source))

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "batch.run",
		attribute.String(otelhelper.RunIDKey, runID),
		attribute.String(otelhelper.RunSourceKey, string(source)),
		attribute.Int(otelhelper.URLCountKey, len(urls)),
	)
	defer span.End()

	result := models.BatchResult{
		RunID:     runID,
		Source:    source,
		StartedAt: r.now().UTC(),
		Outcomes:  make([]models.CaptureOutcome, 0, len(urls)),
		Total:     len(urls),
	}

	if len(urls) == 0 {
		logger.InfoContext(ctx, "No websites to screenshot")

		result.FinishedAt = r.now().UTC()

		return result
	}

	logger.InfoContext(ctx, "Starting screenshot batch", "count", len(urls))

	for _, url := range urls {
		outcome := r.capture(ctx, url)
		if outcome.Success {
			result.Successful++
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.FinishedAt = r.now().UTC()

	logger.InfoContext(ctx, fmt.Sprintf("Completed: %d/%d", result.Successful, result.Total),
		"successful", result.Successful,
		"total", result.Total,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)

	return result
}

func (r *Runner) capture(ctx context.Context, url string) models.CaptureOutcome {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "batch.capture",
		attribute.String(otelhelper.URLKey, url),
	)
	defer span.End()

	outcome := r.capturer.Capture(ctx, url)

	span.SetAttributes(attribute.Bool(otelhelper.SuccessKey, outcome.Success))

	if !outcome.Success {
		otelhelper.SetError(span, errors.New(outcome.Error), attribute.String(otelhelper.URLKey, url))
	}

	return outcome
}
