// ABOUTME: URL helpers for API base URLs: suffix stripping and secret redaction
// ABOUTME: Lets users paste either a base URL or a full endpoint without doubling paths

package httputil

import (
	"net/url"
	"strings"
)

// NormalizeBaseURL trims trailing slashes and then strips the first matching
// suffix, so "http://host/v1/chat/completions" and "http://host/v1" both
// reduce to the base the provider appends its own path to.
func NormalizeBaseURL(baseURL string, suffixes ...string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	for _, s := range suffixes {
		if trimmed, ok := strings.CutSuffix(baseURL, s); ok {
			return strings.TrimRight(trimmed, "/")
		}
	}
	return baseURL
}

// RedactURL masks the "key" query parameter so URLs are safe to log.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("key") == "" {
		return raw
	}
	q.Set("key", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
