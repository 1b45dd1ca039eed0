package normalize

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// entityReplacements run in order, each over the output of the previous one.
var entityReplacements = [...][2]string{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&nbsp;", " "},
}

// StripHTML removes markup tags, decodes the common entities and trims the
// result. Entities are replaced literally and in sequence, so "&amp;lt;"
// becomes "<".
func StripHTML(text string) string {
	if text == "" {
		return ""
	}

	clean := tagPattern.ReplaceAllString(text, "")
	for _, r := range entityReplacements {
		clean = strings.ReplaceAll(clean, r[0], r[1])
	}

	return strings.TrimSpace(clean)
}

// Truncate returns at most limit characters of s. It slices on rune
// boundaries and never splits a multi-byte character.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}

	return s
}
