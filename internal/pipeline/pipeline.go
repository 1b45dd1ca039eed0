// Package pipeline runs feed ingestion: fetch each active feed, normalize
// its entries, resolve their images and persist the ones not seen before.
//
// Failures are contained at the narrowest level. An entry that fails is
// logged and skipped; a feed that fails is marked in the store and the run
// moves on. Only failing to list the feeds aborts a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oshoup521/NewsHub/internal/domain"
	"github.com/oshoup521/NewsHub/internal/feed"
	"github.com/oshoup521/NewsHub/internal/logger"
	"github.com/oshoup521/NewsHub/internal/metrics"
)

// DefaultConcurrency processes feeds one at a time.
const DefaultConcurrency = 1

// fetchFailurePrefix starts the error message recorded on a feed whose fetch failed.
const fetchFailurePrefix = "Failed to fetch feed"

// ArticleStore is the persistence the pipeline needs.
type ArticleStore interface {
	ListActiveFeeds(ctx context.Context) ([]*domain.Feed, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	InsertArticle(ctx context.Context, article *domain.Article) (bool, error)
	UpdateFeedStatus(ctx context.Context, feedID int64, success bool, errMsg string) error
}

// FeedFetcher retrieves and parses a feed document.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*feed.Document, error)
}

// EntryNormalizer maps a raw entry to an article, or reports it unusable.
type EntryNormalizer interface {
	Normalize(entry *feed.RawEntry, f *domain.Feed) (*domain.Article, bool)
}

// ImageResolver finds an image for an entry. It never fails; an empty URL
// means none was found.
type ImageResolver interface {
	Resolve(ctx context.Context, entry *feed.RawEntry, feedURL string) (imageURL, strategy string)
}

// Config tunes a Pipeline.
type Config struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Pipeline is one configured ingestion job.
type Pipeline struct {
	store       ArticleStore
	fetcher     FeedFetcher
	normalizer  EntryNormalizer
	resolver    ImageResolver
	metrics     *metrics.Metrics
	log         logger.Logger
	concurrency int
}

// New creates a Pipeline. m may be nil.
func New(
	cfg Config,
	store ArticleStore,
	fetcher FeedFetcher,
	normalizer EntryNormalizer,
	resolver ImageResolver,
	m *metrics.Metrics,
	log logger.Logger,
) *Pipeline {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Pipeline{
		store:       store,
		fetcher:     fetcher,
		normalizer:  normalizer,
		resolver:    resolver,
		metrics:     m,
		log:         log.With(logger.String("component", "pipeline")),
		concurrency: concurrency,
	}
}

// Run processes every active feed, or only those in feedIDs when it is
// non-empty. Per-feed outcomes are in the result; the error is reserved
// for failures that stop the run from starting, and for cancellation.
func (p *Pipeline) Run(ctx context.Context, feedIDs []int64) (*RunResult, error) {
	started := time.Now()

	feeds, err := p.store.ListActiveFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active feeds: %w", err)
	}

	feeds = selectFeeds(feeds, feedIDs)
	if len(feeds) == 0 {
		p.log.Info("No feeds to process")
		return &RunResult{Feeds: []*FeedResult{}}, nil
	}

	p.log.Info("Processing feeds",
		logger.Int("feeds", len(feeds)),
		logger.Int("concurrency", p.concurrency),
	)

	results := make([]*FeedResult, len(feeds))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, f := range feeds {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Feeds not yet started when the run is cancelled are left alone.
			if ctx.Err() != nil {
				return nil
			}
			results[i] = p.processFeed(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	run := &RunResult{Feeds: slices.DeleteFunc(results, isNilResult), Duration: time.Since(started)}
	if skipped := len(feeds) - len(run.Feeds); skipped > 0 {
		p.log.Warn("Run cancelled before all feeds started", logger.Int("skipped_feeds", skipped))
	}

	p.log.Info("Completed",
		logger.Int("total_new_articles", run.TotalSaved()),
		logger.Int("failed_feeds", run.FailedFeeds()),
		logger.Duration("duration", run.Duration),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return run, fmt.Errorf("pipeline run interrupted: %w", ctxErr)
	}

	return run, nil
}

// processFeed runs one feed to completion and records its status.
func (p *Pipeline) processFeed(ctx context.Context, f *domain.Feed) *FeedResult {
	log := p.log.With(
		logger.Int64("feed_id", f.ID),
		logger.String("feed_url", f.URL),
	)
	result := &FeedResult{FeedID: f.ID, FeedName: f.Name, FeedURL: f.URL}

	log.Info("Processing feed", logger.String("feed_name", f.Name))

	fetchStarted := time.Now()
	doc, err := p.fetcher.Fetch(ctx, f.URL)
	fetchDuration := time.Since(fetchStarted)
	if err != nil {
		result.Err = err
		if ctx.Err() != nil {
			return p.interrupted(result, log)
		}
		log.Error("Failed to fetch feed", logger.Error(err))
		p.metrics.FeedProcessed(false, fetchDuration)
		p.markFeed(ctx, f.ID, false, fmt.Sprintf("%s: %v", fetchFailurePrefix, err), log)
		return result
	}

	if doc.Malformed {
		result.Malformed = true
		log.Warn("Feed may have issues", logger.String("warning", doc.Warning))
	}

	if err := p.processEntries(ctx, f, doc.Entries, result, log); err != nil {
		result.Err = err
		if ctx.Err() != nil {
			return p.interrupted(result, log)
		}
		result.Saved = 0
		log.Error("Error processing feed", logger.Error(err))
		p.metrics.FeedProcessed(false, fetchDuration)
		p.markFeed(ctx, f.ID, false, err.Error(), log)
		return result
	}

	p.metrics.FeedProcessed(true, fetchDuration)
	p.markFeed(ctx, f.ID, true, "", log)

	log.Info("Processed feed",
		logger.String("feed_name", f.Name),
		logger.Int("entries", result.Entries),
		logger.Int("new_articles", result.Saved),
	)
	return result
}

// interrupted finishes a feed cut short by cancellation. No status is
// recorded: the feed itself did nothing wrong.
func (p *Pipeline) interrupted(result *FeedResult, log logger.Logger) *FeedResult {
	result.Interrupted = true
	log.Warn("Feed interrupted",
		logger.Int("entries", result.Entries),
		logger.Int("new_articles", result.Saved),
		logger.Error(result.Err),
	)
	return result
}

func isNilResult(r *FeedResult) bool { return r == nil }

// processEntries walks the document's entries. Only cancellation stops it early.
func (p *Pipeline) processEntries(
	ctx context.Context,
	f *domain.Feed,
	entries []*feed.RawEntry,
	result *FeedResult,
	log logger.Logger,
) error {
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("process entries: %w", err)
		}

		result.Entries++
		outcome, err := p.processEntry(ctx, f, entry, result)
		switch outcome {
		case outcomeSaved:
			result.Saved++
			p.metrics.ArticleSaved()
		case outcomeInvalid:
			result.Skipped++
			p.metrics.EntrySkipped(metrics.SkipInvalid)
		case outcomeDuplicate:
			result.Duplicate++
			p.metrics.EntrySkipped(metrics.SkipDuplicate)
		case outcomeFailed:
			result.Failed++
			p.metrics.EntrySkipped(metrics.SkipError)
			log.Error("Error processing entry",
				logger.String("title", entry.Title),
				logger.String("url", entry.CanonicalLink()),
				logger.Error(err),
			)
		}
	}
	return nil
}

type entryOutcome int

const (
	outcomeSaved entryOutcome = iota
	outcomeInvalid
	outcomeDuplicate
	outcomeFailed
)

// errEntryPanic wraps a recovered panic from a single entry.
var errEntryPanic = errors.New("panic while processing entry")

// processEntry takes a single entry from raw to persisted. The store is
// checked before the image is resolved so known articles never trigger a
// page scrape; the insert itself is still conditional on the URL.
func (p *Pipeline) processEntry(
	ctx context.Context,
	f *domain.Feed,
	entry *feed.RawEntry,
	result *FeedResult,
) (outcome entryOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = outcomeFailed
			err = fmt.Errorf("%w: %v", errEntryPanic, r)
		}
	}()

	article, ok := p.normalizer.Normalize(entry, f)
	if !ok {
		return outcomeInvalid, nil
	}

	exists, err := p.store.ExistsByURL(ctx, article.URL)
	if err != nil {
		return outcomeFailed, fmt.Errorf("check article exists: %w", err)
	}
	if exists {
		return outcomeDuplicate, nil
	}

	if imageURL, strategy := p.resolver.Resolve(ctx, entry, f.URL); imageURL != "" {
		article.ImageURL = &imageURL
		result.Images++
		p.metrics.ImageResolved(strategy)
	}

	inserted, err := p.store.InsertArticle(ctx, article)
	if err != nil {
		return outcomeFailed, fmt.Errorf("save article: %w", err)
	}
	if !inserted {
		return outcomeDuplicate, nil
	}

	p.log.Debug("Saved article",
		logger.Int64("feed_id", f.ID),
		logger.String("title", article.Title),
	)
	return outcomeSaved, nil
}

// markFeed records the feed's status. A failed update is logged only; it
// never changes the feed's result.
func (p *Pipeline) markFeed(ctx context.Context, feedID int64, success bool, errMsg string, log logger.Logger) {
	// A feed that finished still records its status if the run is cancelled now.
	ctx = context.WithoutCancel(ctx)
	if err := p.store.UpdateFeedStatus(ctx, feedID, success, errMsg); err != nil {
		log.Error("Failed to update feed status",
			logger.Bool("success", success),
			logger.Error(err),
		)
	}
}

func selectFeeds(feeds []*domain.Feed, feedIDs []int64) []*domain.Feed {
	if len(feedIDs) == 0 {
		return feeds
	}

	selected := make([]*domain.Feed, 0, len(feedIDs))
	for _, f := range feeds {
		if slices.Contains(feedIDs, f.ID) {
			selected = append(selected, f)
		}
	}
	return selected
}
