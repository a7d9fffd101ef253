// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/webmonitor/pkg/persistence"
	"github.com/dukex/webmonitor/pkg/persistence/file"
	"github.com/dukex/webmonitor/pkg/persistence/sqlstore"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql", "sqlite"}

// NewPersistence picks the backend from the URL scheme. URLs without a known
// scheme are treated as a directory for the file backend.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)

	logger.InfoContext(ctx, "Initializing persistence", "provider", provider)

	switch provider {
	case "postgres", "postgresql":
		store, err := sqlstore.NewPostgres(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres persistence: %w", err)
		}

		return store, nil
	case "sqlite":
		store, err := sqlstore.NewSQLite(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite persistence: %w", err)
		}

		return store, nil
	default:
		return file.NewPersistence(logger, databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
