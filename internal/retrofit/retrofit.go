// Package retrofit backfills images for stored articles that were saved
// without one, by scraping their article pages.
package retrofit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshoup521/NewsHub/internal/domain"
	"github.com/oshoup521/NewsHub/internal/imageresolver"
	"github.com/oshoup521/NewsHub/internal/logger"
	"github.com/oshoup521/NewsHub/internal/metrics"
)

// ArticleStore is the persistence the retrofit needs.
type ArticleStore interface {
	ListArticlesMissingImage(ctx context.Context, publishers []string, limit int) ([]*domain.MissingImageArticle, error)
	UpdateArticleImage(ctx context.Context, articleID, imageURL string) (bool, error)
}

// ErrNotUpdated is recorded when the store accepted no change for an article.
var ErrNotUpdated = errors.New("article image not updated")

// ArticleResult is the outcome for one article.
type ArticleResult struct {
	ArticleID string
	Title     string
	URL       string
	FeedName  string
	ImageURL  string
	// Result is one of metrics.RetrofitUpdated, RetrofitNotFound or RetrofitError.
	Result string
	Err    error
}

// Result summarizes a retrofit run.
type Result struct {
	Articles []*ArticleResult
	Updated  int
	Duration time.Duration
}

// Retrofitter runs the image backfill.
type Retrofitter struct {
	store    ArticleStore
	scraper  imageresolver.Scraper
	registry *imageresolver.Registry
	metrics  *metrics.Metrics
	log      logger.Logger
	cfg      Config
	wait     func(ctx context.Context, d time.Duration) error
}

// Option customizes a Retrofitter.
type Option func(*Retrofitter)

// WithRegistry overrides the publisher registry.
func WithRegistry(registry *imageresolver.Registry) Option {
	return func(r *Retrofitter) { r.registry = registry }
}

// WithMetrics records results on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Retrofitter) { r.metrics = m }
}

// WithWait overrides how the pause between articles is taken.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Retrofitter) { r.wait = wait }
}

// New creates a Retrofitter.
func New(cfg Config, store ArticleStore, scraper imageresolver.Scraper, log logger.Logger, opts ...Option) *Retrofitter {
	r := &Retrofitter{
		store:    store,
		scraper:  scraper,
		registry: imageresolver.NewRegistry(),
		log:      log.With(logger.String("component", "retrofit")),
		cfg:      cfg.WithDefaults(),
		wait:     sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run visits up to cfg.Limit image-less articles from the allow-listed
// publishers, newest first, pausing cfg.Delay between page scrapes.
func (r *Retrofitter) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	articles, err := r.store.ListArticlesMissingImage(ctx, r.cfg.Publishers, r.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("list articles missing image: %w", err)
	}

	result := &Result{Articles: make([]*ArticleResult, 0, len(articles))}
	if len(articles) == 0 {
		r.log.Info("No articles without images found")
		return result, nil
	}

	r.log.Info("Processing articles without images", logger.Int("articles", len(articles)))

	for i, article := range articles {
		if i > 0 {
			if waitErr := r.wait(ctx, r.cfg.Delay); waitErr != nil {
				result.Duration = time.Since(started)
				return result, fmt.Errorf("retrofit interrupted: %w", waitErr)
			}
		}

		ar := r.processArticle(ctx, article)
		result.Articles = append(result.Articles, ar)
		if ar.Result == metrics.RetrofitUpdated {
			result.Updated++
		}
		r.metrics.RetrofitResult(ar.Result)
	}

	result.Duration = time.Since(started)
	r.log.Info("Completed image retrofit",
		logger.Int("updated", result.Updated),
		logger.Int("articles", len(result.Articles)),
		logger.Duration("duration", result.Duration),
	)

	return result, nil
}

func (r *Retrofitter) processArticle(ctx context.Context, article *domain.MissingImageArticle) (ar *ArticleResult) {
	ar = &ArticleResult{
		ArticleID: article.ID,
		Title:     article.Title,
		URL:       article.URL,
		FeedName:  article.FeedName,
	}
	log := r.log.With(
		logger.String("article_id", article.ID),
		logger.String("feed_name", article.FeedName),
	)

	defer func() {
		if rec := recover(); rec != nil {
			ar.Result = metrics.RetrofitError
			ar.Err = fmt.Errorf("panic while retrofitting: %v", rec)
			log.Error("Error retrofitting article", logger.Error(ar.Err))
		}
	}()

	log.Info("Processing article", logger.String("title", article.Title))

	imageURL, err := r.scraper.Scrape(ctx, article.URL, r.publisherFor(article))
	if err != nil {
		ar.Err = err
		ar.Result = metrics.RetrofitError
		if errors.Is(err, imageresolver.ErrNoImage) {
			ar.Result = metrics.RetrofitNotFound
		}
		log.Debug("No image found", logger.String("url", article.URL), logger.Error(err))
		return ar
	}

	updated, err := r.store.UpdateArticleImage(ctx, article.ID, imageURL)
	if err == nil && !updated {
		err = ErrNotUpdated
	}
	if err != nil {
		ar.Err = err
		ar.Result = metrics.RetrofitError
		log.Error("Failed to update article", logger.Error(err))
		return ar
	}

	ar.ImageURL = imageURL
	ar.Result = metrics.RetrofitUpdated
	log.Info("Added image", logger.String("image_url", imageURL))
	return ar
}

// publisherFor picks the markup rules for an article: by feed host, then
// article host, then feed name. Nil means meta tags only.
func (r *Retrofitter) publisherFor(article *domain.MissingImageArticle) *imageresolver.Publisher {
	if pub := r.registry.Lookup(article.FeedURL, article.URL); pub != nil {
		return pub
	}
	return r.registry.ByName(article.FeedName)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
