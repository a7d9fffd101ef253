package models

import "time"

// TriggerInfo describes an active recurring trigger derived from a ScheduleEntry.
type TriggerInfo struct {
	Weekday int       `json:"weekday"`
	Day     string    `json:"day"`
	Time    string    `json:"time"`
	Spec    string    `json:"spec"`
	Next    time.Time `json:"next"`
}
