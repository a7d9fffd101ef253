package capture_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/webmonitor/pkg/capture"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	mu        sync.Mutex
	launchErr error
	navigate  func(ctx context.Context, url string) error
	shot      func() ([]byte, error)
	launched  int
	closed    int
}

func (b *fakeBrowser) Launch(_ context.Context) (capture.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.launchErr != nil {
		return nil, b.launchErr
	}

	b.launched++

	return &fakeSession{browser: b}, nil
}

func (b *fakeBrowser) counts() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.launched, b.closed
}

type fakeSession struct {
	browser *fakeBrowser
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	if s.browser.navigate != nil {
		return s.browser.navigate(ctx, url)
	}

	return nil
}

func (s *fakeSession) Screenshot(_ context.Context) ([]byte, error) {
	if s.browser.shot != nil {
		return s.browser.shot()
	}

	return []byte("\x89PNG"), nil
}

func (s *fakeSession) Close() error {
	s.browser.mu.Lock()
	defer s.browser.mu.Unlock()

	s.browser.closed++

	return nil
}

var fixedNow = time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)

func newCapturer(browser capture.Browser, fs afero.Fs, opts ...capture.Option) *capture.Capturer {
	store := capture.NewStoreFs(fs, "/screenshots")
	opts = append([]capture.Option{capture.WithClock(func() time.Time { return fixedNow })}, opts...)

	return capture.NewCapturer(slog.Default(), browser, store, opts...)
}

func TestCapturer_Success(t *testing.T) {
	fs := afero.NewMemMapFs()
	browser := &fakeBrowser{}

	outcome := newCapturer(browser, fs).Capture(context.Background(), "https://example.com/a?b=1")

	require.True(t, outcome.Success, outcome.Error)
	assert.Equal(t, "https://example.com/a?b=1", outcome.URL)
	assert.Equal(t, "/screenshots/example.com_a_b_1/screenshot_2024-06-03T09-00-00.png", outcome.Path)
	assert.Empty(t, outcome.Error)

	data, err := afero.ReadFile(fs, "example.com_a_b_1/screenshot_2024-06-03T09-00-00.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data)

	launched, closed := browser.counts()
	assert.Equal(t, 1, launched)
	assert.Equal(t, 1, closed)
}

func TestCapturer_LaunchFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	browser := &fakeBrowser{launchErr: errors.New("failed to launch browser: chrome not found")}

	outcome := newCapturer(browser, fs).Capture(context.Background(), "https://example.com")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "chrome not found")
	assert.Empty(t, outcome.Path)

	// The folder is created before the browser is launched.
	exists, err := afero.DirExists(fs, "example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCapturer_NavigationFailureClosesBrowser(t *testing.T) {
	browser := &fakeBrowser{
		navigate: func(context.Context, string) error {
			return errors.New("navigation failed: net::ERR_NAME_NOT_RESOLVED")
		},
	}

	outcome := newCapturer(browser, afero.NewMemMapFs()).Capture(context.Background(), "https://unreachable.invalid")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "ERR_NAME_NOT_RESOLVED")

	launched, closed := browser.counts()
	assert.Equal(t, 1, launched)
	assert.Equal(t, 1, closed)
}

func TestCapturer_NavigationTimeout(t *testing.T) {
	browser := &fakeBrowser{
		navigate: func(ctx context.Context, _ string) error {
			<-ctx.Done()

			return ctx.Err()
		},
	}

	started := time.Now()
	outcome := newCapturer(browser, afero.NewMemMapFs(), capture.WithTimeout(50*time.Millisecond)).
		Capture(context.Background(), "https://slow.example.com")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "deadline exceeded")
	assert.Less(t, time.Since(started), 2*time.Second)

	_, closed := browser.counts()
	assert.Equal(t, 1, closed)
}

func TestCapturer_ScreenshotFailure(t *testing.T) {
	browser := &fakeBrowser{
		shot: func() ([]byte, error) {
			return nil, errors.New("failed to capture screenshot: target closed")
		},
	}

	outcome := newCapturer(browser, afero.NewMemMapFs()).Capture(context.Background(), "https://example.com")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "target closed")

	_, closed := browser.counts()
	assert.Equal(t, 1, closed)
}

func TestCapturer_PanicBecomesFailure(t *testing.T) {
	browser := &fakeBrowser{
		navigate: func(context.Context, string) error {
			panic("driver exploded")
		},
	}

	outcome := newCapturer(browser, afero.NewMemMapFs()).Capture(context.Background(), "https://example.com")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "driver exploded")

	_, closed := browser.counts()
	assert.Equal(t, 1, closed)
}

func TestCapturer_WriteFailure(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	browser := &fakeBrowser{}

	outcome := newCapturer(browser, fs).Capture(context.Background(), "https://example.com")

	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.Error)

	// A read-only store fails before any browser is started.
	launched, _ := browser.counts()
	assert.Equal(t, 0, launched)
}
