package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence"
)

type Websites struct {
	persistence persistence.Persistence
	logger      *slog.Logger

	// mu serializes read-modify-write cycles on the stored list.
	mu sync.Mutex
}

func NewWebsites(logger *slog.Logger, persistence persistence.Persistence) *Websites {
	return &Websites{
		persistence: persistence,
		logger:      logger.With("module", "websites_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Websites) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (w *Websites) List(ctx context.Context) ([]string, error) {
	websites, err := w.persistence.Websites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load websites: %w", err)
	}

	if websites == nil {
		websites = []string{}
	}

	return websites, nil
}

// Add appends url to the list. The list is left unchanged when url is
// invalid or already present.
func (w *Websites) Add(ctx context.Context, raw string) ([]string, error) {
	url, err := models.NormalizeWebsiteURL(raw)
	if err != nil {
		return nil, NewValidationError("add_website", "invalid_url", err.Error(), err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	websites, err := w.List(ctx)
	if err != nil {
		return nil, err
	}

	if models.ContainsWebsite(websites, url) {
		return nil, &ServiceError{Op: "add_website", Code: "conflict", Message: "Website already exists", Err: ErrWebsiteExists}
	}

	websites = append(websites, url)

	err = w.persistence.SaveWebsites(ctx, websites)
	if err != nil {
		return nil, fmt.Errorf("failed to save website: %w", err)
	}

	w.logger.InfoContext(ctx, "Website added", "url", url, "count", len(websites))

	return websites, nil
}

// Remove deletes url from the list by exact match.
func (w *Websites) Remove(ctx context.Context, url string) ([]string, error) {
	if url == "" {
		return nil, NewValidationError("remove_website", "invalid_url", ErrURLRequired.Error(), ErrURLRequired)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	websites, err := w.List(ctx)
	if err != nil {
		return nil, err
	}

	remaining, found := models.WithoutWebsite(websites, url)
	if !found {
		return nil, &ServiceError{Op: "remove_website", Code: "not_found", Message: "Website not found", Err: ErrWebsiteNotFound}
	}

	err = w.persistence.SaveWebsites(ctx, remaining)
	if err != nil {
		return nil, fmt.Errorf("failed to save websites: %w", err)
	}

	w.logger.InfoContext(ctx, "Website removed", "url", url, "count", len(remaining))

	return remaining, nil
}

// Replace stores urls as the whole list. Every entry is normalized; an
// invalid or repeated entry rejects the whole list.
func (w *Websites) Replace(ctx context.Context, urls []string) ([]string, error) {
	websites := make([]string, 0, len(urls))

	for i, raw := range urls {
		url, err := models.NormalizeWebsiteURL(raw)
		if err != nil {
			return nil, NewValidationError("replace_websites", "invalid_url", fmt.Sprintf("entry %d: %s", i, err), err)
		}

		if models.ContainsWebsite(websites, url) {
			return nil, NewValidationError("replace_websites", "duplicate_url", fmt.Sprintf("entry %d: %s is listed twice", i, url), ErrDuplicateURL)
		}

		websites = append(websites, url)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.persistence.SaveWebsites(ctx, websites)
	if err != nil {
		return nil, fmt.Errorf("failed to save websites: %w", err)
	}

	w.logger.InfoContext(ctx, "Websites replaced", "count", len(websites))

	return websites, nil
}
