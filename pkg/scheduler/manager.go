// Package scheduler turns the weekly schedule into recurring cron triggers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/robfig/cron/v3"
)

type ScheduleSource interface {
	Schedule(ctx context.Context) (models.Schedule, error)
}

type URLSource interface {
	Websites(ctx context.Context) ([]string, error)
}

// Dispatcher hands a URL list to the batch pipeline without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, source models.RunSource, urls []string) (string, error)
}

// Manager owns the active trigger set. Every (re)activation replaces the
// whole set under mu; triggers are never added or removed individually.
type Manager struct {
	mu sync.Mutex

	schedules  ScheduleSource
	websites   URLSource
	dispatcher Dispatcher
	location   *time.Location
	now        func() time.Time
	logger     *slog.Logger

	cron    *cron.Cron
	entries []models.ScheduleEntry
	fireCtx context.Context
}

type Option func(*Manager)

// WithLocation sets the time zone triggers are evaluated in. Defaults to time.Local.
func WithLocation(location *time.Location) Option {
	return func(m *Manager) {
		if location != nil {
			m.location = location
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(logger *slog.Logger, schedules ScheduleSource, websites URLSource, dispatcher Dispatcher, opts ...Option) *Manager {
	m := &Manager{
		schedules:  schedules,
		websites:   websites,
		dispatcher: dispatcher,
		location:   time.Local,
		now:        time.Now,
		logger:     logger.With("module", "scheduler"),
		fireCtx:    context.Background(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start activates the triggers of the stored schedule. ctx is also the parent
// context of every scheduled run until Stop.
func (m *Manager) Start(ctx context.Context) (int, error) {
	m.mu.Lock()
	m.fireCtx = context.WithoutCancel(ctx)
	m.mu.Unlock()

	return m.Reload(ctx)
}

// Reload stops all triggers, reads the schedule again and recreates one
// trigger per entry. It returns the number of active triggers.
func (m *Manager) Reload(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	schedule, err := m.schedules.Schedule(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to load schedule, scheduler inactive", "error", err)

		return 0, fmt.Errorf("failed to load schedule: %w", err)
	}

	entries := schedule.Entries()
	if len(entries) == 0 {
		m.logger.InfoContext(ctx, "No schedule configured, scheduler inactive")

		return 0, nil
	}

	c := cron.New(
		cron.WithLocation(m.location),
		cron.WithChain(cron.Recover(cronLogger{logger: m.logger})),
	)

	for _, entry := range entries {
		_, err := c.AddFunc(entry.CronSpec(), func() { m.fire(entry) })
		if err != nil {
			c.Stop()

			return 0, fmt.Errorf("failed to add trigger for %s %s: %w", entry.DayName(), entry.Time, err)
		}

		m.logger.InfoContext(ctx, "Scheduled screenshots",
			"weekday", entry.Weekday,
			"day", entry.DayName(),
			"time", entry.Time,
			"spec", entry.CronSpec(),
		)
	}

	c.Start()

	m.cron = c
	m.entries = entries

	m.logger.InfoContext(ctx, "Scheduler active", "triggers", len(entries))

	return len(entries), nil
}

// Stop discards every trigger. Runs already dispatched are not affected.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
}

func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cron != nil
}

// Triggers returns the active triggers ordered by weekday with their next fire time.
func (m *Manager) Triggers() []models.TriggerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().In(m.location)
	triggers := make([]models.TriggerInfo, 0, len(m.entries))

	for _, entry := range m.entries {
		next, err := entry.Next(now)
		if err != nil {
			continue
		}

		triggers = append(triggers, models.TriggerInfo{
			Weekday: entry.Weekday,
			Day:     entry.DayName(),
			Time:    entry.Time,
			Spec:    entry.CronSpec(),
			Next:    next,
		})
	}

	return triggers
}

func (m *Manager) stopLocked() {
	if m.cron != nil {
		m.cron.Stop()
		m.cron = nil
	}

	m.entries = nil
}

func (m *Manager) fire(entry models.ScheduleEntry) {
	m.mu.Lock()
	ctx := m.fireCtx
	m.mu.Unlock()

	logger := m.logger.With("weekday", entry.Weekday, "day", entry.DayName(), "time", entry.Time)
	logger.InfoContext(ctx, "Scheduled run triggered")

	urls, err := m.websites.Websites(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load websites for scheduled run", "error", err)

		return
	}

	if len(urls) == 0 {
		logger.InfoContext(ctx, "No websites to screenshot, skipping scheduled run")

		return
	}

	runID, err := m.dispatcher.Dispatch(ctx, models.RunSourceSchedule, urls)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to dispatch scheduled run", "error", err)

		return
	}

	logger.InfoContext(ctx, "Scheduled run dispatched", "run_id", runID, "count", len(urls))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
