package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Viewport is the emulated browser window size.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport matches a 1080p desktop screen.
var DefaultViewport = Viewport{Width: 1920, Height: 1080}

// DefaultLaunchTimeout bounds finding (or downloading) and starting Chrome.
const DefaultLaunchTimeout = time.Minute

// Browser launches isolated browser sessions. Each session owns its own
// browser process and must be closed by the caller.
type Browser interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is a single-use browser: navigate once, capture once, close.
type Session interface {
	// Navigate loads url and waits for network quiescence. ctx bounds the wait.
	Navigate(ctx context.Context, url string) error
	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// RodBrowser launches headless Chrome through go-rod.
type RodBrowser struct {
	// Bin is the Chrome binary; empty lets the launcher find or download one.
	Bin      string
	Viewport Viewport
	// IdleTime is how long the network must stay quiet before a page counts as loaded.
	IdleTime time.Duration
	// LaunchTimeout bounds Launch; zero means DefaultLaunchTimeout.
	LaunchTimeout time.Duration
}

// NewRodBrowser returns a RodBrowser with the default viewport.
func NewRodBrowser(bin string) *RodBrowser {
	return &RodBrowser{
		Bin:           bin,
		Viewport:      DefaultViewport,
		IdleTime:      500 * time.Millisecond,
		LaunchTimeout: DefaultLaunchTimeout,
	}
}

func (b *RodBrowser) Launch(ctx context.Context) (Session, error) {
	timeout := b.LaunchTimeout
	if timeout <= 0 {
		timeout = DefaultLaunchTimeout
	}

	launchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l := launcher.New().
		Context(launchCtx).
		Headless(true).
		NoSandbox(true)

	if b.Bin != "" {
		l = l.Bin(b.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		// Cleanup waits for a process exit that never comes when the
		// process did not start, so only the profile directory is removed.
		l.Kill()
		_ = os.RemoveAll(l.Get(flags.UserDataDir))

		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)

	err = browser.Connect()
	if err != nil {
		l.Kill()
		l.Cleanup()

		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &rodSession{
		launcher: l,
		browser:  browser,
		viewport: b.Viewport,
		idleTime: b.IdleTime,
	}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	viewport Viewport
	idleTime time.Duration
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}

	s.page = page

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.viewport.Width,
		Height:            s.viewport.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	bounded := page.Context(ctx)

	// Must be armed before navigating so the initial requests are observed.
	waitIdle := bounded.WaitRequestIdle(s.idleTime, nil, nil, nil)

	err = bounded.Navigate(url)
	if err != nil {
		return navigationError(ctx, err)
	}

	waitIdle()

	if ctx.Err() != nil {
		return navigationError(ctx, ctx.Err())
	}

	return nil
}

func (s *rodSession) Screenshot(ctx context.Context) ([]byte, error) {
	if s.page == nil {
		return nil, errors.New("no page loaded")
	}

	png, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	return png, nil
}

func (s *rodSession) Close() error {
	err := s.browser.Close()

	s.launcher.Kill()
	s.launcher.Cleanup()

	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}

	return nil
}

func navigationError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("navigation timeout exceeded: %w", context.DeadlineExceeded)
	}

	return fmt.Errorf("navigation failed: %w", err)
}
