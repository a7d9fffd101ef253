package models

import (
	"errors"
	"strings"
)

var (
	// ErrWebsiteURLRequired is returned for empty URLs.
	ErrWebsiteURLRequired = errors.New("URL is required")

	// ErrWebsiteURLScheme is returned for URLs that are not http or https.
	ErrWebsiteURLScheme = errors.New("URL must start with http:// or https://")
)

// NormalizeWebsiteURL trims raw and checks that it is an absolute http(s) URL.
func NormalizeWebsiteURL(raw string) (string, error) {
	url := strings.TrimSpace(raw)
	if url == "" {
		return "", ErrWebsiteURLRequired
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", ErrWebsiteURLScheme
	}

	return url, nil
}

// ContainsWebsite reports whether url is present in websites.
func ContainsWebsite(websites []string, url string) bool {
	for _, website := range websites {
		if website == url {
			return true
		}
	}

	return false
}

// WithoutWebsite returns websites without url, preserving order, and whether url was found.
func WithoutWebsite(websites []string, url string) ([]string, bool) {
	remaining := make([]string, 0, len(websites))
	found := false

	for _, website := range websites {
		if website == url {
			found = true

			continue
		}

		remaining = append(remaining, website)
	}

	return remaining, found
}
