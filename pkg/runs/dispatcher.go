// Package runs queues batch runs on the event bus and executes them one at a time.
package runs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dukex/webmonitor/pkg/batch"
	"github.com/dukex/webmonitor/pkg/eventbus"
	"github.com/dukex/webmonitor/pkg/events"
	"github.com/dukex/webmonitor/pkg/models"
)

// Dispatcher publishes run requests and returns without waiting for the batch.
type Dispatcher struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func NewDispatcher(logger *slog.Logger, publisher eventbus.EventPublisher) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    logger.With("module", "run_dispatcher"),
	}
}

// Dispatch queues a batch over a copy of urls and returns its run ID.
func (d *Dispatcher) Dispatch(ctx context.Context, source models.RunSource, urls []string) (string, error) {
	runID := batch.NewRunID()

	event := events.RunRequested{
		BaseEvent: events.NewBaseEvent(events.RunRequestedEvent, runID),
		Source:    source,
		URLs:      slices.Clone(urls),
	}

	err := d.publisher.Publish(ctx, runID, event)
	if err != nil {
		return "", fmt.Errorf("failed to queue run %s: %w", runID, err)
	}

	d.logger.InfoContext(ctx, "Run queued", "run_id", runID, "source", string(source), "count", len(urls))

	return runID, nil
}
