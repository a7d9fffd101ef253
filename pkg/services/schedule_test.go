package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReloader struct {
	store   *file.Persistence
	reloads int
}

func (r *countingReloader) Reload(ctx context.Context) (int, error) {
	r.reloads++

	schedule, err := r.store.Schedule(ctx)
	if err != nil {
		return 0, err
	}

	return len(schedule.Entries()), nil
}

func (r *countingReloader) Triggers() []models.TriggerInfo {
	return nil
}

func TestSchedule_UpdateFiltersPersistsAndReloads(t *testing.T) {
	store := file.NewPersistence(slog.Default(), t.TempDir())
	reloader := &countingReloader{store: store}
	service := NewSchedule(slog.Default(), store, reloader)

	response, err := service.Update(t.Context(), map[string]any{
		"1": "09:00",
		"5": "17:30",
		"2": "25:00",
		"3": "abc",
		"9": "09:00",
		"4": 1200,
	})
	require.NoError(t, err)

	// Invalid entries are dropped silently.
	assert.Equal(t, models.Schedule{1: "09:00", 5: "17:30"}, response.Schedule)
	assert.Equal(t, 2, response.Triggers)
	assert.Equal(t, 1, reloader.reloads)

	stored, err := service.Get(t.Context())
	require.NoError(t, err)
	assert.Equal(t, models.Schedule{1: "09:00", 5: "17:30"}, stored)
}

func TestSchedule_UpdateEmptyDeactivates(t *testing.T) {
	store := file.NewPersistence(slog.Default(), t.TempDir())
	service := NewSchedule(slog.Default(), store, &countingReloader{store: store})

	_, err := service.Update(t.Context(), map[string]any{"1": "09:00"})
	require.NoError(t, err)

	response, err := service.Update(t.Context(), map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, response.Schedule)
	assert.Equal(t, 0, response.Triggers)
}

func TestSchedule_UpdateRejectsNil(t *testing.T) {
	store := file.NewPersistence(slog.Default(), t.TempDir())
	service := NewSchedule(slog.Default(), store, &countingReloader{store: store})

	_, err := service.Update(t.Context(), nil)
	require.ErrorIs(t, err, ErrScheduleNotObject)
	assert.True(t, IsValidationError(err))
}

func TestSchedule_GetMissingIsEmpty(t *testing.T) {
	store := file.NewPersistence(slog.Default(), t.TempDir())
	service := NewSchedule(slog.Default(), store, &countingReloader{store: store})

	schedule, err := service.Get(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, schedule)
	assert.Empty(t, schedule)
}
