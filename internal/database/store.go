package database

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrFeedNotFound is returned when a feed status update matches no row.
var ErrFeedNotFound = errors.New("feed not found")

// Store is the relational article store shared with the NewsHub web application.
// Column names keep the web application's camelCase spelling, so they are quoted.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore creates a store over an open connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// DB exposes the underlying connection.
func (s *Store) DB() *sqlx.DB {
	return s.db
}
