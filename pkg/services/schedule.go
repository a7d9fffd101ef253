package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence"
)

// Reloader re-arms the scheduler from the stored schedule.
type Reloader interface {
	Reload(ctx context.Context) (int, error)
	Triggers() []models.TriggerInfo
}

type Schedule struct {
	persistence persistence.Persistence
	reloader    Reloader
	logger      *slog.Logger
}

func NewSchedule(logger *slog.Logger, persistence persistence.Persistence, reloader Reloader) *Schedule {
	return &Schedule{
		persistence: persistence,
		reloader:    reloader,
		logger:      logger.With("module", "schedule_service"),
	}
}

// UpdateScheduleResponse is the stored table and the number of triggers it armed.
type UpdateScheduleResponse struct {
	Schedule models.Schedule `json:"schedule"`
	Triggers int             `json:"triggers"`
}

func (s *Schedule) Get(ctx context.Context) (models.Schedule, error) {
	schedule, err := s.persistence.Schedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	if schedule == nil {
		schedule = models.Schedule{}
	}

	return schedule, nil
}

// Update keeps the valid entries of raw, stores them as the whole schedule
// and reloads the triggers. Invalid entries are dropped without error.
func (s *Schedule) Update(ctx context.Context, raw map[string]any) (*UpdateScheduleResponse, error) {
	if raw == nil {
		return nil, NewValidationError("update_schedule", "invalid_schedule", ErrScheduleNotObject.Error(), ErrScheduleNotObject)
	}

	schedule := models.FilterSchedule(raw)

	if dropped := len(raw) - len(schedule); dropped > 0 {
		s.logger.InfoContext(ctx, "Dropped invalid schedule entries", "dropped", dropped)
	}

	err := s.persistence.SaveSchedule(ctx, schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	triggers, err := s.reloader.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reload scheduler: %w", err)
	}

	return &UpdateScheduleResponse{
		Schedule: schedule,
		Triggers: triggers,
	}, nil
}

func (s *Schedule) Triggers() []models.TriggerInfo {
	return s.reloader.Triggers()
}
