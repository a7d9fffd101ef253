package sqlstore_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) (*sqlstore.Persistence, string) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	databaseURL := "sqlite://" + filepath.Join(t.TempDir(), "webmonitor.db")

	store, err := sqlstore.NewSQLite(context.Background(), logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, store.Close(context.Background()))
	})

	return store, databaseURL
}

func TestSQLite_EmptyDatabase(t *testing.T) {
	store, _ := setupSQLite(t)
	ctx := context.Background()

	websites, err := store.Websites(ctx)
	require.NoError(t, err)
	assert.Empty(t, websites)

	schedule, err := store.Schedule(ctx)
	require.NoError(t, err)
	assert.Empty(t, schedule)

	assert.NoError(t, store.HealthCheck(ctx))
}

func TestSQLite_WebsitesReplacePreservesOrder(t *testing.T) {
	store, _ := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWebsites(ctx, []string{"https://c.com", "https://a.com"}))
	require.NoError(t, store.SaveWebsites(ctx, []string{"https://b.com", "https://c.com", "https://a.com"}))

	websites, err := store.Websites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://b.com", "https://c.com", "https://a.com"}, websites)
}

func TestSQLite_DuplicateWebsiteRollsBack(t *testing.T) {
	store, _ := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWebsites(ctx, []string{"https://a.com"}))

	err := store.SaveWebsites(ctx, []string{"https://b.com", "https://b.com"})
	require.Error(t, err)

	websites, err := store.Websites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com"}, websites)
}

func TestSQLite_ScheduleReplace(t *testing.T) {
	store, _ := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSchedule(ctx, models.Schedule{1: "09:00", 5: "17:30"}))
	require.NoError(t, store.SaveSchedule(ctx, models.Schedule{3: "12:15", 7: "10:00"}))

	schedule, err := store.Schedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Schedule{3: "12:15"}, schedule)
}

func TestSQLite_ReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	store, databaseURL := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWebsites(ctx, []string{"https://example.com"}))

	reopened, err := sqlstore.NewSQLite(ctx, slog.Default(), databaseURL)
	require.NoError(t, err)

	defer func() { _ = reopened.Close(ctx) }()

	websites, err := reopened.Websites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com"}, websites)
}

func TestNewSQLite_RequiresPath(t *testing.T) {
	_, err := sqlstore.NewSQLite(context.Background(), slog.Default(), "sqlite://")
	assert.Error(t, err)
}
