// Package persistence provides the storage abstraction for the website list and the capture schedule.
package persistence

import (
	"context"

	"github.com/dukex/webmonitor/pkg/models"
)

// Persistence stores two independent documents: the ordered website list and
// the weekday schedule. Each is read and written whole. A missing document
// reads as empty.
type Persistence interface {
	Websites(ctx context.Context) ([]string, error)
	SaveWebsites(ctx context.Context, websites []string) error

	Schedule(ctx context.Context) (models.Schedule, error)
	SaveSchedule(ctx context.Context, schedule models.Schedule) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
