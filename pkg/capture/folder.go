package capture

import (
	"regexp"
	"strings"
	"time"
)

const (
	filenamePrefix  = "screenshot_"
	filenameSuffix  = ".png"
	timestampLayout = "2006-01-02T15-04-05"
)

var (
	schemePattern = regexp.MustCompile(`^https?://`)
	unsafePattern = regexp.MustCompile(`[^a-zA-Z0-9.-]+`)
)

// SanitizeFolderName derives the artifact folder of a URL: the http(s) scheme
// is stripped, every run of characters outside [A-Za-z0-9.-] becomes a single
// underscore, and leading/trailing underscores are removed.
//
// The mapping is deterministic but not injective: "https://a.com/x?y=1" and
// "https://a.com/x_y_1" share the folder "a.com_x_y_1".
func SanitizeFolderName(url string) string {
	name := schemePattern.ReplaceAllString(url, "")
	name = unsafePattern.ReplaceAllString(name, "_")

	return strings.Trim(name, "_")
}

// ValidFolderName reports whether name could have been produced by
// SanitizeFolderName and is safe to join under the artifact root.
func ValidFolderName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return SanitizeFolderName(name) == name
}

// ArtifactFilename returns the file name for a capture taken at t. The UTC
// timestamp has second resolution and sorts lexically in time order.
func ArtifactFilename(t time.Time) string {
	return filenamePrefix + t.UTC().Format(timestampLayout) + filenameSuffix
}

// IsArtifactFilename reports whether name looks like a stored screenshot.
func IsArtifactFilename(name string) bool {
	return strings.HasSuffix(name, filenameSuffix)
}
