package runs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dukex/webmonitor/pkg/eventbus"
	"github.com/dukex/webmonitor/pkg/events"
	"github.com/dukex/webmonitor/pkg/models"
)

var ErrUnexpectedEvent = errors.New("unexpected event payload")

type BatchRunner interface {
	RunWithID(ctx context.Context, runID string, source models.RunSource, urls []string) models.BatchResult
}

// Worker consumes run requests. Batches never overlap, whatever their source.
type Worker struct {
	runner BatchRunner
	bus    eventbus.EventBus
	logger *slog.Logger

	runMu sync.Mutex

	mu      sync.RWMutex
	last    *models.BatchResult
	running string
}

func NewWorker(logger *slog.Logger, runner BatchRunner, bus eventbus.EventBus) *Worker {
	return &Worker{
		runner: runner,
		bus:    bus,
		logger: logger.With("module", "run_worker"),
	}
}

// Start registers the worker on the bus and begins consuming until ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	err := w.bus.Handle(events.RunRequestedEvent, w.handleRunRequested)
	if err != nil {
		return fmt.Errorf("failed to register run handler: %w", err)
	}

	err = w.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to run events: %w", err)
	}

	w.logger.InfoContext(ctx, "Run worker started")

	return nil
}

// LastResult returns the most recently completed batch.
func (w *Worker) LastResult() (models.BatchResult, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.last == nil {
		return models.BatchResult{}, false
	}

	return *w.last, true
}

// Running returns the ID of the batch in progress, if any.
func (w *Worker) Running() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.running
}

// handleRunRequested always acknowledges; a failed batch is reported in its
// result, never retried.
func (w *Worker) handleRunRequested(ctx context.Context, event any) error {
	request, ok := event.(*events.RunRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Ignoring run event", "error", ErrUnexpectedEvent)

		return nil
	}

	w.Execute(ctx, request.RunID, request.Source, request.URLs)

	return nil
}

// Execute runs one batch synchronously and publishes its completion. A batch
// that panics completes with no successful outcomes.
func (w *Worker) Execute(ctx context.Context, runID string, source models.RunSource, urls []string) models.BatchResult {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	logger := w.logger.With("run_id", runID, "source", string(source))

	w.setRunning(runID)
	defer w.setRunning("")

	result := w.run(ctx, logger, runID, source, urls)

	w.mu.Lock()
	w.last = &result
	w.mu.Unlock()

	err := w.bus.Publish(ctx, runID, events.RunCompleted{
		BaseEvent: events.NewBaseEvent(events.RunCompletedEvent, runID),
		Result:    result,
	})
	if err != nil {
		logger.WarnContext(ctx, "Failed to publish run completion", "error", err)
	}

	return result
}

func (w *Worker) run(ctx context.Context, logger *slog.Logger, runID string, source models.RunSource, urls []string) (result models.BatchResult) {
	startedAt := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Run panicked", "panic", r, "stack", string(debug.Stack()))

			result = panickedResult(runID, source, urls, startedAt, fmt.Sprintf("run panicked: %v", r))
		}
	}()

	return w.runner.RunWithID(ctx, runID, source, urls)
}

// panickedResult reports every URL of an aborted batch as failed.
func panickedResult(runID string, source models.RunSource, urls []string, startedAt time.Time, reason string) models.BatchResult {
	finishedAt := time.Now()

	outcomes := make([]models.CaptureOutcome, 0, len(urls))
	for _, url := range urls {
		outcomes = append(outcomes, models.CaptureOutcome{
			URL:        url,
			Error:      reason,
			CapturedAt: finishedAt.UTC(),
		})
	}

	return models.BatchResult{
		RunID:      runID,
		Source:     source,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Outcomes:   outcomes,
		Total:      len(urls),
	}
}

func (w *Worker) setRunning(runID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.running = runID
}
