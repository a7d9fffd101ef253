package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSchedule_KeepsValidEntries(t *testing.T) {
	schedule := FilterSchedule(map[string]any{
		"1": "09:00",
		"5": "17:30",
		"0": "7:05",
	})

	assert.Equal(t, Schedule{0: "7:05", 1: "09:00", 5: "17:30"}, schedule)
}

// Invalid entries are dropped silently rather than reported as partial errors.
func TestFilterSchedule_SilentlyDropsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{name: "hour out of range", raw: map[string]any{"1": "25:00"}},
		{name: "minute out of range", raw: map[string]any{"1": "12:60"}},
		{name: "not a time", raw: map[string]any{"2": "abc"}},
		{name: "weekday out of range", raw: map[string]any{"9": "10:00"}},
		{name: "negative weekday", raw: map[string]any{"-1": "10:00"}},
		{name: "non numeric weekday", raw: map[string]any{"monday": "10:00"}},
		{name: "trailing garbage in weekday", raw: map[string]any{"1abc": "10:00"}},
		{name: "signed weekday", raw: map[string]any{"+1": "10:00"}},
		{name: "fractional weekday", raw: map[string]any{"1.0": "10:00"}},
		{name: "padded out of range weekday", raw: map[string]any{"07": "10:00"}},
		{name: "non string value", raw: map[string]any{"3": 900}},
		{name: "seconds included", raw: map[string]any{"3": "09:00:00"}},
		{name: "empty value", raw: map[string]any{"4": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, FilterSchedule(tt.raw))
		})
	}
}

func TestParseWeekday_AcceptsPaddedKeys(t *testing.T) {
	for key, want := range map[string]int{"0": 0, "6": 6, "03": 3, " 2 ": 2, "\t5": 5} {
		weekday, err := ParseWeekday(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, weekday, key)
	}
}

func TestFilterSchedule_MixedInput(t *testing.T) {
	schedule := FilterSchedule(map[string]any{
		"1": "09:00",
		"2": "25:00",
		"9": "10:00",
		"6": "23:59",
	})

	assert.Equal(t, Schedule{1: "09:00", 6: "23:59"}, schedule)
}

func TestFilterSchedule_DuplicateWeekdayIsDeterministic(t *testing.T) {
	raw := map[string]any{"01": "08:00", "1": "09:00"}

	for range 20 {
		assert.Equal(t, Schedule{1: "09:00"}, FilterSchedule(raw))
	}
}

func TestParseTimeOfDay(t *testing.T) {
	hour, minute, err := ParseTimeOfDay("7:05")
	require.NoError(t, err)
	assert.Equal(t, 7, hour)
	assert.Equal(t, 5, minute)

	_, _, err = ParseTimeOfDay("24:00")
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestSchedule_EntriesSortedAndValid(t *testing.T) {
	schedule := Schedule{5: "17:30", 1: "09:00", 8: "10:00", 2: "bad"}

	entries := schedule.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, ScheduleEntry{Weekday: 1, Time: "09:00", Hour: 9, Minute: 0}, entries[0])
	assert.Equal(t, ScheduleEntry{Weekday: 5, Time: "17:30", Hour: 17, Minute: 30}, entries[1])
	assert.Equal(t, "Monday", entries[0].DayName())
	assert.Equal(t, "Friday", entries[1].DayName())
}

func TestScheduleEntry_CronSpec(t *testing.T) {
	entry := ScheduleEntry{Weekday: 5, Hour: 17, Minute: 30}
	assert.Equal(t, "30 17 * * 5", entry.CronSpec())
}

func TestScheduleEntry_NextFiresOncePerWeek(t *testing.T) {
	entry := ScheduleEntry{Weekday: 1, Time: "09:00", Hour: 9, Minute: 0}

	// Wednesday 2024-01-03 12:00 UTC.
	reference := time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)

	first, err := entry.Next(reference)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Monday, first.Weekday())

	second, err := entry.Next(first)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, second.Sub(first))
}

func TestScheduleEntry_NextSameDayLaterTime(t *testing.T) {
	entry := ScheduleEntry{Weekday: 5, Hour: 17, Minute: 30}

	// Friday 2024-01-05 08:00 UTC.
	reference := time.Date(2024, time.January, 5, 8, 0, 0, 0, time.UTC)

	next, err := entry.Next(reference)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 5, 17, 30, 0, 0, time.UTC), next)
}
