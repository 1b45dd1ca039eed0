package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oshoup521/NewsHub/internal/domain"
)

// ExistsByURL reports whether an article with the given canonical URL is stored.
func (s *Store) ExistsByURL(ctx context.Context, url string) (bool, error) {
	query := s.db.Rebind(`SELECT EXISTS (SELECT 1 FROM articles WHERE url = ?)`)

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, url); err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}

	return exists, nil
}

// InsertArticle stores a new article. It returns false without error when an
// article with the same URL already exists; the unique constraint on url
// decides, so concurrent inserts of one URL create a single row.
func (s *Store) InsertArticle(ctx context.Context, article *domain.Article) (bool, error) {
	query := `
		INSERT INTO articles (
			id, title, description, content, url, "imageUrl", author, "publishedAt",
			"viewCount", "bookmarkCount", "isActive", "feedId", "categoryId", "createdAt", "updatedAt"
		) VALUES (
			:id, :title, :description, :content, :url, :imageUrl, :author, :publishedAt,
			:viewCount, :bookmarkCount, :isActive, :feedId, :categoryId, :createdAt, :updatedAt
		)
		ON CONFLICT (url) DO NOTHING
	`

	result, err := s.db.NamedExecContext(ctx, query, article)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}

	inserted, err := rowsChanged(result)
	if err != nil {
		return false, fmt.Errorf("insert article rows affected: %w", err)
	}

	return inserted, nil
}

// UpdateArticleImage sets the image of an article that still has none.
// It returns false when the article is missing or already has an image.
func (s *Store) UpdateArticleImage(ctx context.Context, articleID, imageURL string) (bool, error) {
	query := s.db.Rebind(`
		UPDATE articles
		SET "imageUrl" = ?, "updatedAt" = ?
		WHERE id = ? AND ("imageUrl" IS NULL OR "imageUrl" = '')
	`)

	result, err := s.db.ExecContext(ctx, query, imageURL, s.now(), articleID)
	if err != nil {
		return false, fmt.Errorf("update article image: %w", err)
	}

	updated, err := rowsChanged(result)
	if err != nil {
		return false, fmt.Errorf("update article image rows affected: %w", err)
	}

	return updated, nil
}

// ListArticlesMissingImage returns the newest articles without an image whose
// feed name is in publishers. An empty allow-list matches nothing.
func (s *Store) ListArticlesMissingImage(
	ctx context.Context,
	publishers []string,
	limit int,
) ([]*domain.MissingImageArticle, error) {
	if len(publishers) == 0 || limit <= 0 {
		return []*domain.MissingImageArticle{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT a.id, a.title, a.url, f.name AS "feedName", f.url AS "feedUrl"
		FROM articles a
		JOIN feeds f ON a."feedId" = f.id
		WHERE (a."imageUrl" IS NULL OR a."imageUrl" = '')
		  AND f.name IN (?)
		ORDER BY a."createdAt" DESC
		LIMIT ?
	`, publishers, limit)
	if err != nil {
		return nil, fmt.Errorf("build missing image query: %w", err)
	}

	var articles []*domain.MissingImageArticle
	if selectErr := s.db.SelectContext(ctx, &articles, s.db.Rebind(query), args...); selectErr != nil {
		return nil, fmt.Errorf("list articles missing image: %w", selectErr)
	}

	if articles == nil {
		articles = []*domain.MissingImageArticle{}
	}

	return articles, nil
}
