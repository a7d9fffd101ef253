package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// WatchSchedule calls onChange whenever the schedule document is created,
// rewritten or removed on disk. Bursts of events are coalesced. It blocks until
// ctx is canceled.
func (p *Persistence) WatchSchedule(ctx context.Context, onChange func(ctx context.Context)) error {
	err := os.MkdirAll(p.root, 0o750)
	if err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			p.logger.ErrorContext(ctx, "Failed to close schedule watcher", "error", closeErr)
		}
	}()

	// The directory is watched rather than the file: documents are replaced
	// by rename, which would drop a watch held on the old inode.
	err = watcher.Add(p.root)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", p.root, err)
	}

	target := filepath.Clean(p.SchedulePath())

	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	defer timer.Stop()

	p.logger.InfoContext(ctx, "Watching schedule document", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			p.logger.WarnContext(ctx, "Schedule watcher error", "error", err)

		case <-timer.C:
			p.logger.InfoContext(ctx, "Schedule document changed on disk")
			onChange(ctx)
		}
	}
}
