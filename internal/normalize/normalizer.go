// Package normalize turns raw feed entries into Article records.
package normalize

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oshoup521/NewsHub/internal/domain"
	"github.com/oshoup521/NewsHub/internal/feed"
	"github.com/oshoup521/NewsHub/internal/logger"
)

// Normalizer builds canonical articles from raw entries.
type Normalizer struct {
	log   logger.Logger
	now   func() time.Time
	newID func() string
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDGenerator overrides the article id source.
func WithIDGenerator(newID func() string) Option {
	return func(n *Normalizer) { n.newID = newID }
}

// New creates a Normalizer.
func New(log logger.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts entry into an Article owned by f. The bool is false
// when the entry has no usable title or link and must be skipped.
func (n *Normalizer) Normalize(entry *feed.RawEntry, f *domain.Feed) (*domain.Article, bool) {
	title := StripHTML(entry.Title)
	if title == "" {
		return nil, false
	}

	link := entry.CanonicalLink()
	if link == "" {
		return nil, false
	}

	published, err := ParseDate(entry.PublishedParsed, entry.Published)
	if err != nil {
		n.log.Warn("Could not parse date",
			logger.String("date", entry.Published),
			logger.String("url", link),
		)
	}

	now := n.now()
	return &domain.Article{
		ID:          n.newID(),
		Title:       Truncate(title, domain.MaxTitleLength),
		Description: optional(StripHTML(entry.Description), domain.MaxDescriptionLength),
		Content:     optional(StripHTML(entry.Body()), domain.MaxContentLength),
		URL:         link,
		Author:      optional(author(entry), domain.MaxAuthorLength),
		PublishedAt: published,
		IsActive:    true,
		FeedID:      f.ID,
		CategoryID:  f.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, true
}

func author(entry *feed.RawEntry) string {
	if a := strings.TrimSpace(entry.Author); a != "" {
		return a
	}
	return strings.TrimSpace(entry.Creator)
}

// optional truncates s and returns nil for empty values.
func optional(s string, limit int) *string {
	if s == "" {
		return nil
	}
	s = Truncate(s, limit)
	return &s
}
