// Package capture takes one screenshot of one URL with a fresh headless
// browser and stores it as a PNG artifact under a folder derived from the URL.
//
// A Capturer never returns an error: every failure (browser launch,
// navigation, timeout, screenshot, write) is reported in the returned
// models.CaptureOutcome. The browser used for a capture is always torn down
// before Capture returns.
package capture
