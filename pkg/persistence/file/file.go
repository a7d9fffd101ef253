// Package file provides file-based persistence of the website list and schedule as JSON documents.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence"
)

const (
	WebsitesFile = "websites.json"
	ScheduleFile = "schedule.json"
)

// Persistence implements persistence.Persistence with two JSON documents under root.
type Persistence struct {
	root   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewPersistence creates a new file persistence rooted at root. A "file://" prefix is accepted.
func NewPersistence(logger *slog.Logger, root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)
	if cleanRoot == "" {
		cleanRoot = "./data"
	}

	return &Persistence{
		root:   cleanRoot,
		logger: logger.With("module", "file_persistence", "root", cleanRoot),
	}
}

// Root returns the directory holding the documents.
func (p *Persistence) Root() string {
	return p.root
}

// SchedulePath returns the path of the schedule document.
func (p *Persistence) SchedulePath() string {
	return filepath.Join(p.root, ScheduleFile)
}

// Websites returns the stored website list. A missing or unreadable document reads as empty.
func (p *Persistence) Websites(ctx context.Context) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	websites := []string{}

	err := p.readDocument(WebsitesFile, &websites)
	if err != nil {
		p.logger.WarnContext(ctx, "Error loading websites, using empty list", "error", err)

		return []string{}, nil
	}

	if websites == nil {
		websites = []string{}
	}

	return websites, nil
}

// SaveWebsites replaces the stored website list.
func (p *Persistence) SaveWebsites(_ context.Context, websites []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if websites == nil {
		websites = []string{}
	}

	err := p.writeDocument(WebsitesFile, websites)
	if err != nil {
		return persistence.NewDocumentError("Save", "websites", err)
	}

	return nil
}

// Schedule returns the stored schedule. A missing or unreadable document reads
// as empty, and entries that fail validation are dropped.
func (p *Persistence) Schedule(ctx context.Context) (models.Schedule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	raw := map[string]any{}

	err := p.readDocument(ScheduleFile, &raw)
	if err != nil {
		p.logger.WarnContext(ctx, "Error loading schedule, using empty schedule", "error", err)

		return models.Schedule{}, nil
	}

	return models.FilterSchedule(raw), nil
}

// SaveSchedule replaces the stored schedule. Invalid entries are never written.
func (p *Persistence) SaveSchedule(_ context.Context, schedule models.Schedule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.writeDocument(ScheduleFile, schedule.Valid())
	if err != nil {
		return persistence.NewDocumentError("Save", "schedule", err)
	}

	return nil
}

// HealthCheck verifies the root directory is usable. A root that does not
// exist yet is healthy as it is created on first write.
func (p *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(p.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", p.root)
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) readDocument(name string, target any) error {
	data, err := os.ReadFile(filepath.Join(p.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	err = json.Unmarshal(data, target)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", persistence.ErrCorruptDocument, name, err)
	}

	return nil
}

// writeDocument writes to a temporary file and renames it over the target so
// readers never observe a partially written document.
func (p *Persistence) writeDocument(name string, value any) error {
	err := os.MkdirAll(p.root, 0o750)
	if err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(p.root, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	err = os.Rename(tmpName, filepath.Join(p.root, name))
	if err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	return nil
}
