// Package events defines the run lifecycle events exchanged over the event bus.
package events

import (
	"time"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every run event.
const Topic = "webmonitor.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunRequestedEvent EventType = "run.requested"
	RunCompletedEvent EventType = "run.completed"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
}

// RunRequested asks the run worker to capture URLs in order.
type RunRequested struct {
	BaseEvent

	Source models.RunSource `json:"source"`
	URLs   []string         `json:"urls"`
}

func (r RunRequested) GetType() EventType {
	return RunRequestedEvent
}

// RunCompleted reports the result of a finished batch.
type RunCompleted struct {
	BaseEvent

	Result models.BatchResult `json:"result"`
}

func (r RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
	}
}
