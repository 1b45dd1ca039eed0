package imageresolver

import (
	"net/url"
	"strings"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp"}

// imageHints are substrings that mark a URL as image-like even without an extension.
var imageHints = []string{"image", "img", "photo", "picture"}

// IsValidImage reports whether rawURL looks like an image: its path ends in
// a known image extension, or the URL mentions one of imageHints.
// Matching is case-insensitive.
func IsValidImage(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return false
	}

	lower := strings.ToLower(rawURL)
	path := lower
	if u, err := url.Parse(lower); err == nil {
		path = u.Path
	}

	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) || strings.HasSuffix(lower, ext) {
			return true
		}
	}

	for _, hint := range imageHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}

	return false
}

// ResolveURL makes ref absolute against base. Only http and https results
// are accepted; anything else (data URIs, javascript:, unparseable input)
// reports false.
func ResolveURL(base, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	if !refURL.IsAbs() {
		baseURL, parseErr := url.Parse(strings.TrimSpace(base))
		if parseErr != nil || !baseURL.IsAbs() {
			return "", false
		}
		refURL = baseURL.ResolveReference(refURL)
	}

	if refURL.Scheme != "http" && refURL.Scheme != "https" {
		return "", false
	}
	if refURL.Host == "" {
		return "", false
	}

	return refURL.String(), true
}
