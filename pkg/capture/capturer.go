package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/webmonitor/pkg/models"
)

// DefaultTimeout bounds navigation of a single URL.
const DefaultTimeout = 6 * time.Second

// Capturer produces exactly one models.CaptureOutcome per URL.
type Capturer struct {
	browser Browser
	store   *Store
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Capturer) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithClock overrides the clock used for artifact timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Capturer) {
		c.now = now
	}
}

func NewCapturer(logger *slog.Logger, browser Browser, store *Store, opts ...Option) *Capturer {
	c := &Capturer{
		browser: browser,
		store:   store,
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  logger.With("module", "capture"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Capture loads url in a fresh browser and saves a viewport screenshot.
func (c *Capturer) Capture(ctx context.Context, url string) (outcome models.CaptureOutcome) {
	startedAt := c.now()
	logger := c.logger.With("url", url)

	outcome = models.CaptureOutcome{
		URL:        url,
		CapturedAt: startedAt.UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Path = ""
			outcome.Error = fmt.Sprintf("capture panicked: %v", r)
		}

		outcome.Duration = time.Since(startedAt)

		if outcome.Success {
			logger.InfoContext(ctx, "Screenshot saved", "path", outcome.Path)
		} else {
			logger.ErrorContext(ctx, "Failed to screenshot", "error", outcome.Error)
		}
	}()

	folder, err := c.store.Prepare(url)
	if err != nil {
		return fail(outcome, err)
	}

	png, err := c.shoot(ctx, url)
	if err != nil {
		return fail(outcome, err)
	}

	path, err := c.store.Save(folder, startedAt, png)
	if err != nil {
		return fail(outcome, err)
	}

	outcome.Success = true
	outcome.Path = path

	return outcome
}

// shoot owns the browser session; it is closed on every return path.
func (c *Capturer) shoot(ctx context.Context, url string) ([]byte, error) {
	session, err := c.browser.Launch(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			c.logger.WarnContext(ctx, "Failed to close browser", "url", url, "error", closeErr)
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err = session.Navigate(navCtx, url)
	if err != nil {
		return nil, err
	}

	shotCtx, cancelShot := context.WithTimeout(ctx, c.timeout)
	defer cancelShot()

	return session.Screenshot(shotCtx)
}

func fail(outcome models.CaptureOutcome, err error) models.CaptureOutcome {
	outcome.Success = false
	outcome.Error = err.Error()

	if outcome.Error == "" {
		outcome.Error = "unknown capture error"
	}

	return outcome
}
