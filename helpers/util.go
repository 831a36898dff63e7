package helpers

import (
	"net/url"
	"strings"
)

// ResolveURL resolves href against base and drops the query string and fragment.
// It returns "" when either URL cannot be parsed.
func ResolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}

	resolved := baseURL.ResolveReference(ref)
	resolved.RawQuery = ""
	resolved.ForceQuery = false
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// Host returns the host part of rawURL, or rawURL itself when it does not parse.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// ContainsFold reports whether substr is within s, ignoring case
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
