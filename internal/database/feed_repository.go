package database

import (
	"context"
	"fmt"

	"github.com/oshoup521/NewsHub/internal/domain"
)

const feedSelectColumns = `id, name, url, description, "categoryId", "isActive", "fetchIntervalMinutes",
	"lastFetched", "fetchCount", "errorCount", "lastError", "createdAt", "updatedAt"`

// ListActiveFeeds returns every feed flagged active, ordered by id.
func (s *Store) ListActiveFeeds(ctx context.Context) ([]*domain.Feed, error) {
	query := s.db.Rebind(`SELECT ` + feedSelectColumns + ` FROM feeds WHERE "isActive" = ? ORDER BY id`)

	var feeds []*domain.Feed
	if err := s.db.SelectContext(ctx, &feeds, query, true); err != nil {
		return nil, fmt.Errorf("list active feeds: %w", err)
	}

	if feeds == nil {
		feeds = []*domain.Feed{}
	}

	return feeds, nil
}

// UpdateFeedStatus records the outcome of one fetch attempt.
// Success stamps lastFetched, bumps fetchCount and clears the error state;
// failure increments errorCount and stores errMsg.
func (s *Store) UpdateFeedStatus(ctx context.Context, feedID int64, success bool, errMsg string) error {
	if success {
		return s.markFeedSuccess(ctx, feedID)
	}
	return s.markFeedError(ctx, feedID, errMsg)
}

func (s *Store) markFeedSuccess(ctx context.Context, feedID int64) error {
	query := s.db.Rebind(`
		UPDATE feeds
		SET "lastFetched" = ?, "fetchCount" = "fetchCount" + 1, "errorCount" = 0,
			"lastError" = NULL, "updatedAt" = ?
		WHERE id = ?
	`)

	now := s.now()
	result, err := s.db.ExecContext(ctx, query, now, now, feedID)
	if reqErr := execRequireRows(result, err, fmt.Errorf("%w: %d", ErrFeedNotFound, feedID)); reqErr != nil {
		return fmt.Errorf("mark feed success: %w", reqErr)
	}

	return nil
}

func (s *Store) markFeedError(ctx context.Context, feedID int64, errMsg string) error {
	query := s.db.Rebind(`
		UPDATE feeds
		SET "errorCount" = "errorCount" + 1, "lastError" = ?, "updatedAt" = ?
		WHERE id = ?
	`)

	result, err := s.db.ExecContext(ctx, query, errMsg, s.now(), feedID)
	if reqErr := execRequireRows(result, err, fmt.Errorf("%w: %d", ErrFeedNotFound, feedID)); reqErr != nil {
		return fmt.Errorf("mark feed error: %w", reqErr)
	}

	return nil
}
