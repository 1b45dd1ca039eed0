package domain

import "time"

// Field limits, in characters, applied when an entry is normalized.
const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 1000
	MaxContentLength     = 5000
	MaxAuthorLength      = 100
)

// Article is the persisted, deduplicated record derived from a feed entry.
// URL is the dedup key.
type Article struct {
	ID            string     `db:"id"`
	Title         string     `db:"title"`
	Description   *string    `db:"description"`
	Content       *string    `db:"content"`
	URL           string     `db:"url"`
	ImageURL      *string    `db:"imageUrl"`
	Author        *string    `db:"author"`
	PublishedAt   *time.Time `db:"publishedAt"`
	ViewCount     int        `db:"viewCount"`
	BookmarkCount int        `db:"bookmarkCount"`
	IsActive      bool       `db:"isActive"`
	FeedID        int64      `db:"feedId"`
	CategoryID    int64      `db:"categoryId"`
	CreatedAt     time.Time  `db:"createdAt"`
	UpdatedAt     time.Time  `db:"updatedAt"`
}

// HasImage reports whether the article carries a non-empty image URL.
func (a *Article) HasImage() bool {
	return a.ImageURL != nil && *a.ImageURL != ""
}

// MissingImageArticle is a persisted article without an image, joined with
// the feed it came from. The retrofit pass works from these.
type MissingImageArticle struct {
	ID       string `db:"id"`
	Title    string `db:"title"`
	URL      string `db:"url"`
	FeedName string `db:"feedName"`
	FeedURL  string `db:"feedUrl"`
}
