package web

import (
	"encoding/json"
	"fmt"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/services"
)

// AuthTokenHeader carries the session token on protected requests.
const AuthTokenHeader = "X-Auth-Token"

// LoginRequest represents the request body for POST /api/login.
type LoginRequest struct {
	Password string `json:"password" validate:"required,max=1024"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// WebsiteRequest represents the request body for adding or removing a website.
// An empty URL is reported by the website service.
type WebsiteRequest struct {
	URL string `json:"url" validate:"max=2048"`
}

// ReplaceWebsitesRequest represents the request body for PUT /api/websites.
type ReplaceWebsitesRequest struct {
	Websites []string `json:"websites" validate:"required,max=1000,dive,max=2048"`
}

// WebsitesResponse reports the website list after a change.
type WebsitesResponse struct {
	Message  string   `json:"message"`
	Websites []string `json:"websites"`
}

// ScheduleResponse reports the stored schedule after an update.
type ScheduleResponse struct {
	Message string   `json:"message"`
	// Dropped lists the submitted keys that were not stored, sorted.
	Dropped []string `json:"dropped,omitempty"`

	services.UpdateScheduleResponse
}

// scheduleBodySchema accepts any JSON object; entries are filtered afterwards.
const scheduleBodySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object"
}`

// scheduleEntrySchema describes one kept entry of a schedule body, presented
// as {"weekday": key, "time": value}. It uses the same patterns as
// models.FilterSchedule.
func scheduleEntrySchema() string {
	weekday, _ := json.Marshal(models.WeekdayPattern.String())
	timeOfDay, _ := json.Marshal(models.TimeOfDayPattern.String())

	return fmt.Sprintf(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["weekday", "time"],
	"properties": {
		"weekday": {"type": "string", "pattern": %s},
		"time": {"type": "string", "pattern": %s}
	}
}`, weekday, timeOfDay)
}
