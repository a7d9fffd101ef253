package models

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// TimeOfDayPattern is the accepted HH:MM (24-hour) format. A single digit hour is allowed.
var TimeOfDayPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// WeekdayPattern is the accepted weekday key: a decimal 0-6, optionally zero
// padded and surrounded by ASCII whitespace.
var WeekdayPattern = regexp.MustCompile(`^\s*0*[0-6]\s*$`)

var (
	// ErrInvalidTimeOfDay is returned when a value does not match TimeOfDayPattern.
	ErrInvalidTimeOfDay = errors.New("invalid time of day")

	// ErrInvalidWeekday is returned when a weekday is outside 0..6.
	ErrInvalidWeekday = errors.New("invalid weekday")
)

// DayNames indexes weekday names by weekday number, Sunday first.
var DayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var weeklyParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule maps a weekday (0-6, Sunday=0) to a time of day "HH:MM".
// An empty schedule means the scheduler is inactive.
type Schedule map[int]string

// ScheduleEntry is a single weekday/time pair of a Schedule.
type ScheduleEntry struct {
	Weekday int
	Time    string
	Hour    int
	Minute  int
}

// FilterSchedule keeps the entries of raw whose key is an integer weekday in
// [0,6] and whose value is a valid time of day. Everything else is dropped
// without being reported.
func FilterSchedule(raw map[string]any) Schedule {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}

	// "1" and "01" address the same weekday; iterate in a stable order so the
	// outcome does not depend on map iteration.
	sort.Strings(keys)

	schedule := Schedule{}

	for _, key := range keys {
		weekday, err := ParseWeekday(key)
		if err != nil {
			continue
		}

		value, ok := raw[key].(string)
		if !ok || !TimeOfDayPattern.MatchString(value) {
			continue
		}

		schedule[weekday] = value
	}

	return schedule
}

// ParseWeekday parses a weekday key matching WeekdayPattern.
func ParseWeekday(key string) (int, error) {
	if !WeekdayPattern.MatchString(key) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, key)
	}

	weekday, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, key)
	}

	return weekday, nil
}

// ParseTimeOfDay splits a "HH:MM" value into hour and minute.
func ParseTimeOfDay(value string) (int, int, error) {
	if !TimeOfDayPattern.MatchString(value) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}

	hour, minute, _ := strings.Cut(value, ":")

	h, _ := strconv.Atoi(hour)
	m, _ := strconv.Atoi(minute)

	return h, m, nil
}

// Valid returns a copy of s without the entries that would be rejected by FilterSchedule.
func (s Schedule) Valid() Schedule {
	valid := Schedule{}

	for weekday, value := range s {
		if weekday < 0 || weekday > 6 || !TimeOfDayPattern.MatchString(value) {
			continue
		}

		valid[weekday] = value
	}

	return valid
}

// Entries returns the schedule entries ordered by weekday. Invalid entries are skipped.
func (s Schedule) Entries() []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(s))

	for weekday, value := range s.Valid() {
		hour, minute, _ := ParseTimeOfDay(value)

		entries = append(entries, ScheduleEntry{
			Weekday: weekday,
			Time:    value,
			Hour:    hour,
			Minute:  minute,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Weekday < entries[j].Weekday
	})

	return entries
}

// DayName returns the English weekday name.
func (e ScheduleEntry) DayName() string {
	return DayNames[e.Weekday]
}

// CronSpec returns the weekly 5-field cron expression for the entry.
func (e ScheduleEntry) CronSpec() string {
	return fmt.Sprintf("%d %d * * %d", e.Minute, e.Hour, e.Weekday)
}

// Next returns the first fire time strictly after reference, in reference's location.
func (e ScheduleEntry) Next(reference time.Time) (time.Time, error) {
	schedule, err := weeklyParser.Parse(e.CronSpec())
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(reference), nil
}
