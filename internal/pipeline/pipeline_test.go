package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshoup521/NewsHub/internal/domain"
	"github.com/oshoup521/NewsHub/internal/feed"
	"github.com/oshoup521/NewsHub/internal/logger"
	"github.com/oshoup521/NewsHub/internal/metrics"
	"github.com/oshoup521/NewsHub/internal/normalize"
	"github.com/oshoup521/NewsHub/internal/pipeline"
)

func activeFeed(id int64, url string) *domain.Feed {
	return &domain.Feed{ID: id, Name: fmt.Sprintf("Feed %d", id), URL: url, CategoryID: 1, IsActive: true}
}

func entries(urls ...string) []*feed.RawEntry {
	out := make([]*feed.RawEntry, 0, len(urls))
	for i, u := range urls {
		out = append(out, &feed.RawEntry{Title: fmt.Sprintf("Story %d", i+1), Link: u})
	}
	return out
}

func newTestPipeline(
	store pipeline.ArticleStore,
	fetcher pipeline.FeedFetcher,
	resolver pipeline.ImageResolver,
	m *metrics.Metrics,
	concurrency int,
) *pipeline.Pipeline {
	log := logger.NewNop()
	return pipeline.New(
		pipeline.Config{Concurrency: concurrency},
		store, fetcher, normalize.New(log), resolver, m, log,
	)
}

func TestRun_SavesNewArticles(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(activeFeed(1, "https://a.example.com/feed"))
	fetcher := &stubFetcher{docs: map[string]*feed.Document{
		"https://a.example.com/feed": {Entries: entries("https://a.example.com/1", "https://a.example.com/2")},
	}}
	resolver := &stubResolver{imageURL: "https://cdn.example.com/x.jpg"}

	result, err := newTestPipeline(store, fetcher, resolver, nil, 1).Run(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, result.Feeds, 1)
	assert.Equal(t, 2, result.TotalSaved())
	assert.Equal(t, 2, result.Feeds[0].Images)
	assert.True(t, result.Feeds[0].Succeeded())
	assert.Equal(t, []feedStatus{{success: true}}, store.statusesFor(1))

	saved := store.articles["https://a.example.com/1"]
	require.NotNil(t, saved)
	require.NotNil(t, saved.ImageURL)
	assert.Equal(t, "https://cdn.example.com/x.jpg", *saved.ImageURL)
	assert.Equal(t, int64(1), saved.FeedID)
}

func TestRun_IsIdempotent(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(activeFeed(1, "https://a.example.com/feed"))
	fetcher := &stubFetcher{docs: map[string]*feed.Document{
		"https://a.example.com/feed": {Entries: entries("https://a.example.com/1", "https://a.example.com/2")},
	}}
	resolver := &stubResolver{}
	p := newTestPipeline(store, fetcher, resolver, nil, 1)

	first, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalSaved())

	second, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.TotalSaved())
	assert.Equal(t, 2, second.Feeds[0].Duplicate)
	assert.Equal(t, 2, store.articleCount())

	// Known articles are not sent through image resolution again.
	assert.Equal(t, 2, resolver.callCount())
}

func TestRun_DuplicateWithinFeed(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(activeFeed(1, "https://a.example.com/feed"))
	fetcher := &stubFetcher{docs: map[string]*feed.Document{
		"https://a.example.com/feed": {Entries: entries("https://a.example.com/1", "https://a.example.com/1")},
	}}

	result, err := newTestPipeline(store, fetcher, &stubResolver{}, nil, 1).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalSaved())
	assert.Equal(t, 1, result.Feeds[0].Duplicate)
}

func TestRun_FetchFailureIsolated(t *testing.T) {
	t.Parallel()

	fetchErr := feed.ClassifyHTTPStatus(500, "https://bad.example.com/feed")
	store := newMemoryStore(
		activeFeed(1, "https://bad.example.com/feed"),
		activeFeed(2, "https://good.example.com/feed"),
	)
	fetcher := &stubFetcher{
		errs: map[string]error{"https://bad.example.com/feed": fetchErr},
		docs: map[string]*feed.Document{
			"https://good.example.com/feed": {Entries: entries("https://good.example.com/1", "https://good.example.com/2")},
		},
	}

	result, err := newTestPipeline(store, fetcher, &stubResolver{}, nil, 1).Run(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, result.Feeds, 2)
	assert.Equal(t, 1, result.FailedFeeds())
	assert.Equal(t, 2, result.TotalSaved())

	bad := result.Feeds[0]
	assert.False(t, bad.Succeeded())
	assert.Zero(t, bad.Saved)
	require.ErrorAs(t, bad.Err, new(*feed.FetchError))

	statuses := store.statusesFor(1)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].success)
	assert.Equal(t, "Failed to fetch feed: "+fetchErr.Error(), statuses[0].errMsg)

	assert.Equal(t, []feedStatus{{success: true}}, store.statusesFor(2))
}

func TestRun_EntryFailuresDoNotStopFeed(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(activeFeed(1, "https://a.example.com/feed"))
	store.insertErr["https://a.example.com/2"] = errors.New("disk full")
	fetcher := &stubFetcher{docs: map[string]*feed.Document{
		"https://a.example.com/feed": {Entries: append(
			entries("https://a.example.com/1", "https://a.example.com/2", "https://a.example.com/3", "https://a.example.com/4"),
			&feed.RawEntry{Title: "   ", Link: "https://a.example.com/untitled"},
			&feed.RawEntry{Title: "No link"},
		)},
	}}
	resolver := &stubResolver{panicOn: "https://a.example.com/3"}

	result, err := newTestPipeline(store, fetcher, resolver, nil, 1).Run(context.Background(), nil)

	require.NoError(t, err)
	fr := result.Feeds[0]
	assert.True(t, fr.Succeeded())
	assert.Equal(t, 6, fr.Entries)
	assert.Equal(t, 2, fr.Saved)
	assert.Equal(t, 2, fr.Failed)
	assert.Equal(t, 2, fr.Skipped)
	assert.Equal(t, []feedStatus{{success: true}}, store.statusesFor(1))
}

func TestRun_FeedSubset(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(
		activeFeed(1, "https://a.example.com/feed"),
		activeFeed(2, "https://b.example.com/feed"),
		activeFeed(3, "https://c.example.com/feed"),
	)
	fetcher := &stubFetcher{docs: map[string]*feed.Document{
		"https://a.example.com/feed": {Entries: entries("https://a.example.com/1")},
		"https://b.example.com/feed": {Entries: entries("https://b.example.com/1")},
		"https://c.example.com/feed": {Entries: entries("https://c.example.com/1")},
	}}

	result, err := newTestPipeline(store, fetcher, &stubResolver{}, nil, 1).Run(context.Background(), []int64{3, 1, 99})

	require.NoError(t, err)
	require.Len(t, result.Feeds, 2)
	assert.Equal(t, int64(1), result.Feeds[0].FeedID)
	assert.Equal(t, int64(3), result.Feeds[1].FeedID)
	assert.Empty(t, store.statusesFor(2))
}

func TestRun_NoFeeds(t *testing.T) {
	t.Parallel()

	inactive := activeFeed(1, "https://a.example.com/feed")
	inactive.IsActive = false

	result, err := newTestPipeline(newMemoryStore(inactive), &stubFetcher{}, &stubResolver{}, nil, 1).
		Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, result.Feeds)
	assert.Zero(t, result.TotalSaved())
}

func TestRun_ListFeedsError(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.listErr = errors.New("database is locked")

	result, err := newTestPipeline(store, &stubFetcher{}, &stubResolver{}, nil, 1).Run(context.Background(), nil)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, store.listErr)
}

func TestRun_Concurrent(t *testing.T) {
	t.Parallel()

	const feedCount = 8
	store := newMemoryStore()
	fetcher := &stubFetcher{docs: map[string]*feed.Document{}}
	for i := int64(1); i <= feedCount; i++ {
		url := fmt.Sprintf("https://f%d.example.com/feed", i)
		store.feeds = append(store.feeds, activeFeed(i, url))
		// Every feed also carries a shared story; it must be stored once.
		fetcher.docs[url] = &feed.Document{Entries: entries(
			fmt.Sprintf("https://f%d.example.com/own", i),
			"https://shared.example.com/story",
		)}
	}

	result, err := newTestPipeline(store, fetcher, &stubResolver{}, nil, 4).Run(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, result.Feeds, feedCount)
	assert.Equal(t, feedCount+1, result.TotalSaved())
	assert.Equal(t, feedCount+1, store.articleCount())
	for i, fr := range result.Feeds {
		assert.Equal(t, int64(i+1), fr.FeedID, "results keep feed order")
	}
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(
		activeFeed(1, "https://a.example.com/feed"),
		activeFeed(2, "https://b.example.com/feed"),
		activeFeed(3, "https://c.example.com/feed"),
	)
	fetcher := &stubFetcher{docs: map[string]*feed.Document{
		"https://a.example.com/feed": {Entries: entries("https://a.example.com/1")},
		"https://b.example.com/feed": {Entries: entries("https://b.example.com/1")},
		"https://c.example.com/feed": {Entries: entries("https://c.example.com/1")},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestPipeline(store, fetcher, &stubResolver{}, nil, 2).Run(ctx, nil)

	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Feeds)
	assert.Zero(t, result.FailedFeeds())
	assert.Zero(t, store.articleCount())
	for _, id := range []int64{1, 2, 3} {
		assert.Empty(t, store.statusesFor(id), "feed %d", id)
	}
}

func TestRun_CanceledDuringFetch(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(
		activeFeed(1, "https://a.example.com/feed"),
		activeFeed(2, "https://b.example.com/feed"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := newTestPipeline(store, &cancelingFetcher{cancel: cancel}, &stubResolver{}, nil, 1).Run(ctx, nil)

	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, result.Feeds, 1)

	interrupted := result.Feeds[0]
	assert.Equal(t, int64(1), interrupted.FeedID)
	assert.True(t, interrupted.Interrupted)
	assert.ErrorIs(t, interrupted.Err, context.Canceled)
	assert.Zero(t, result.FailedFeeds())

	assert.Empty(t, store.statusesFor(1))
	assert.Empty(t, store.statusesFor(2))
}

func TestRun_CanceledMidFeedKeepsSavedCount(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(activeFeed(1, "https://a.example.com/feed"))
	fetcher := &stubFetcher{docs: map[string]*feed.Document{
		"https://a.example.com/feed": {Entries: entries("https://a.example.com/1", "https://a.example.com/2")},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := newTestPipeline(store, fetcher, &cancelingResolver{cancel: cancel}, nil, 1).Run(ctx, nil)

	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, result.Feeds, 1)

	fr := result.Feeds[0]
	assert.True(t, fr.Interrupted)
	assert.Equal(t, 1, fr.Entries)
	assert.Equal(t, 1, fr.Saved)
	assert.Equal(t, 1, result.TotalSaved())
	assert.Equal(t, 1, store.articleCount())
	assert.Empty(t, store.statusesFor(1))
}

func TestRun_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	store := newMemoryStore(
		activeFeed(1, "https://a.example.com/feed"),
		activeFeed(2, "https://bad.example.com/feed"),
	)
	fetcher := &stubFetcher{
		docs: map[string]*feed.Document{
			"https://a.example.com/feed": {Entries: append(
				entries("https://a.example.com/1", "https://a.example.com/1"),
				&feed.RawEntry{Title: "No link"},
			)},
		},
		errs: map[string]error{"https://bad.example.com/feed": errors.New("dial tcp: refused")},
	}
	resolver := &stubResolver{imageURL: "https://cdn.example.com/x.jpg"}

	_, err := newTestPipeline(store, fetcher, resolver, m, 1).Run(context.Background(), nil)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.FeedsProcessed.WithLabelValues(metrics.StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FeedsProcessed.WithLabelValues(metrics.StatusFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ArticlesSaved), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EntriesSkipped.WithLabelValues(metrics.SkipDuplicate)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EntriesSkipped.WithLabelValues(metrics.SkipInvalid)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ImagesResolved.WithLabelValues("stub")), 0)
}
