package file_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPersistence(t *testing.T) (*file.Persistence, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "data")

	return file.NewPersistence(slog.Default(), "file://"+root), root
}

func TestPersistence_MissingDocumentsReadAsEmpty(t *testing.T) {
	p, _ := newPersistence(t)
	ctx := context.Background()

	websites, err := p.Websites(ctx)
	require.NoError(t, err)
	assert.NotNil(t, websites)
	assert.Empty(t, websites)

	schedule, err := p.Schedule(ctx)
	require.NoError(t, err)
	assert.Empty(t, schedule)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestPersistence_WebsitesRoundTripPreservesOrder(t *testing.T) {
	p, root := newPersistence(t)
	ctx := context.Background()

	websites := []string{"https://b.com", "https://a.com", "https://c.com"}
	require.NoError(t, p.SaveWebsites(ctx, websites))

	loaded, err := p.Websites(ctx)
	require.NoError(t, err)
	assert.Equal(t, websites, loaded)

	data, err := os.ReadFile(filepath.Join(root, file.WebsitesFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"https://b.com\"")
}

func TestPersistence_ScheduleRoundTrip(t *testing.T) {
	p, root := newPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveSchedule(ctx, models.Schedule{1: "09:00", 5: "17:30", 9: "10:00"}))

	loaded, err := p.Schedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Schedule{1: "09:00", 5: "17:30"}, loaded)

	data, err := os.ReadFile(filepath.Join(root, file.ScheduleFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":"09:00","5":"17:30"}`, string(data))
}

func TestPersistence_CorruptDocumentsDegradeToEmpty(t *testing.T) {
	p, root := newPersistence(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(root, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, file.WebsitesFile), []byte("{not json"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, file.ScheduleFile), []byte(`["09:00"]`), 0o600))

	websites, err := p.Websites(ctx)
	require.NoError(t, err)
	assert.Empty(t, websites)

	schedule, err := p.Schedule(ctx)
	require.NoError(t, err)
	assert.Empty(t, schedule)
}

func TestPersistence_HandEditedScheduleIsFiltered(t *testing.T) {
	p, root := newPersistence(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(root, 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, file.ScheduleFile),
		[]byte(`{"1":"09:00","2":"25:00","9":"10:00","3":"abc"}`),
		0o600,
	))

	schedule, err := p.Schedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Schedule{1: "09:00"}, schedule)
}

func TestPersistence_HealthCheckRejectsFileRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	p := file.NewPersistence(slog.Default(), path)
	assert.Error(t, p.HealthCheck(context.Background()))
}

func TestPersistence_WatchScheduleNotifiesOnChange(t *testing.T) {
	p, _ := newPersistence(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- p.WatchSchedule(ctx, func(context.Context) {
			calls.Add(1)
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, p.SaveWebsites(ctx, []string{"https://example.com"}))
	require.NoError(t, p.SaveSchedule(ctx, models.Schedule{1: "09:00"}))

	assert.Eventually(t, func() bool {
		return calls.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
