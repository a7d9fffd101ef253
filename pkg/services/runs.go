package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, source models.RunSource, urls []string) (string, error)
}

type RunHistory interface {
	LastResult() (models.BatchResult, bool)
	Running() string
}

type Runs struct {
	persistence persistence.Persistence
	dispatcher  Dispatcher
	history     RunHistory
	logger      *slog.Logger
}

func NewRuns(logger *slog.Logger, persistence persistence.Persistence, dispatcher Dispatcher, history RunHistory) *Runs {
	return &Runs{
		persistence: persistence,
		dispatcher:  dispatcher,
		history:     history,
		logger:      logger.With("module", "runs_service"),
	}
}

// StartRunResponse acknowledges a queued manual run.
type StartRunResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	RunID   string `json:"run_id"`
}

// Start queues a batch over the current website list and returns before any capture begins.
func (r *Runs) Start(ctx context.Context) (*StartRunResponse, error) {
	websites, err := r.persistence.Websites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load websites: %w", err)
	}

	if len(websites) == 0 {
		return nil, NewValidationError("start_run", "no_websites", "No websites configured", ErrNoWebsites)
	}

	runID, err := r.dispatcher.Dispatch(ctx, models.RunSourceManual, websites)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Manual run started", "run_id", runID, "count", len(websites))

	return &StartRunResponse{
		Message: "Screenshot job started",
		Count:   len(websites),
		RunID:   runID,
	}, nil
}

// RunStatus reports the batch in progress and the last completed one.
type RunStatus struct {
	Running string              `json:"running,omitempty"`
	Last    *models.BatchResult `json:"last"`
}

func (r *Runs) Status() RunStatus {
	status := RunStatus{Running: r.history.Running()}

	if last, ok := r.history.LastResult(); ok {
		status.Last = &last
	}

	return status
}
