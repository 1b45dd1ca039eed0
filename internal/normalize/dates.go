package normalize

import (
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnparseableDate is returned when a non-empty date string matches no known format.
var ErrUnparseableDate = errors.New("unparseable date")

// dateLayouts are tried in order once the structured date and the native
// parser have both failed.
var dateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// ParseDate resolves an entry's publish date: the structured value wins,
// then dateparse, then dateLayouts. An empty raw string yields nil without error.
func ParseDate(structured *time.Time, raw string) (*time.Time, error) {
	if structured != nil && !structured.IsZero() {
		t := structured.UTC()
		return &t, nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		t = t.UTC()
		return &t, nil
	}

	if t, ok := parseWithLayouts(raw); ok {
		return &t, nil
	}

	return nil, ErrUnparseableDate
}

func parseWithLayouts(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
