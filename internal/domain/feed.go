// Package domain holds the records shared by the ingestion pipeline and the store.
package domain

import "time"

// DefaultFetchIntervalMinutes is applied to feeds created without an explicit interval.
const DefaultFetchIntervalMinutes = 30

// Feed is a configured syndication source.
type Feed struct {
	ID                   int64      `db:"id"`
	Name                 string     `db:"name"`
	URL                  string     `db:"url"`
	Description          *string    `db:"description"`
	CategoryID           int64      `db:"categoryId"`
	IsActive             bool       `db:"isActive"`
	FetchIntervalMinutes int        `db:"fetchIntervalMinutes"`
	LastFetched          *time.Time `db:"lastFetched"`
	FetchCount           int        `db:"fetchCount"`
	ErrorCount           int        `db:"errorCount"`
	LastError            *string    `db:"lastError"`
	CreatedAt            time.Time  `db:"createdAt"`
	UpdatedAt            time.Time  `db:"updatedAt"`
}
