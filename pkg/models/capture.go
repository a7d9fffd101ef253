package models

import "time"

// RunSource identifies what started a batch run.
type RunSource string

const (
	RunSourceSchedule RunSource = "schedule"
	RunSourceManual   RunSource = "manual"
	RunSourceCLI      RunSource = "cli"
)

// CaptureOutcome is the result of capturing a single URL. Exactly one of
// Path or Error is set, depending on Success.
type CaptureOutcome struct {
	URL        string        `json:"url"`
	Success    bool          `json:"success"`
	Path       string        `json:"path,omitempty"`
	Error      string        `json:"error,omitempty"`
	CapturedAt time.Time     `json:"captured_at"`
	Duration   time.Duration `json:"duration"`
}

// BatchResult holds the ordered outcomes of one batch run.
type BatchResult struct {
	RunID      string           `json:"run_id"`
	Source     RunSource        `json:"source"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Outcomes   []CaptureOutcome `json:"outcomes"`
	Successful int              `json:"successful"`
	Total      int              `json:"total"`
}

// Artifact is a stored screenshot as exposed to API clients.
type Artifact struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}
