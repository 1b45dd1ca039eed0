package pipeline_test

import (
	"context"
	"errors"
	"sync"

	"github.com/oshoup521/NewsHub/internal/domain"
	"github.com/oshoup521/NewsHub/internal/feed"
)

// memoryStore is an in-memory ArticleStore keyed by article URL.
type memoryStore struct {
	mu        sync.Mutex
	feeds     []*domain.Feed
	articles  map[string]*domain.Article
	statuses  map[int64][]feedStatus
	listErr   error
	insertErr map[string]error
}

type feedStatus struct {
	success bool
	errMsg  string
}

func newMemoryStore(feeds ...*domain.Feed) *memoryStore {
	return &memoryStore{
		feeds:     feeds,
		articles:  make(map[string]*domain.Article),
		statuses:  make(map[int64][]feedStatus),
		insertErr: make(map[string]error),
	}
}

func (s *memoryStore) ListActiveFeeds(context.Context) ([]*domain.Feed, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	active := make([]*domain.Feed, 0, len(s.feeds))
	for _, f := range s.feeds {
		if f.IsActive {
			active = append(active, f)
		}
	}
	return active, nil
}

func (s *memoryStore) ExistsByURL(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.articles[url]
	return ok, nil
}

func (s *memoryStore) InsertArticle(_ context.Context, article *domain.Article) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertErr[article.URL]; err != nil {
		return false, err
	}
	if _, ok := s.articles[article.URL]; ok {
		return false, nil
	}
	s.articles[article.URL] = article
	return true, nil
}

func (s *memoryStore) UpdateFeedStatus(_ context.Context, feedID int64, success bool, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[feedID] = append(s.statuses[feedID], feedStatus{success: success, errMsg: errMsg})
	return nil
}

func (s *memoryStore) articleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles)
}

func (s *memoryStore) statusesFor(feedID int64) []feedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feedStatus(nil), s.statuses[feedID]...)
}

// stubFetcher serves canned documents by URL.
type stubFetcher struct {
	docs map[string]*feed.Document
	errs map[string]error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*feed.Document, error) {
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	if doc, ok := f.docs[url]; ok {
		return doc, nil
	}
	return nil, errors.New("no such feed")
}

// stubResolver returns a fixed image for every entry and counts calls.
type stubResolver struct {
	mu       sync.Mutex
	imageURL string
	calls    int
	panicOn  string
}

func (r *stubResolver) Resolve(_ context.Context, entry *feed.RawEntry, _ string) (string, string) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if r.panicOn != "" && entry.Link == r.panicOn {
		panic("resolver exploded")
	}
	if r.imageURL == "" {
		return "", ""
	}
	return r.imageURL, "stub"
}

func (r *stubResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// cancelingFetcher cancels the run from inside Fetch, the way a signal
// arriving mid-request would, and fails with the context error.
type cancelingFetcher struct {
	cancel context.CancelFunc
}

func (f *cancelingFetcher) Fetch(ctx context.Context, _ string) (*feed.Document, error) {
	f.cancel()
	<-ctx.Done()
	return nil, ctx.Err()
}

// cancelingResolver cancels the run after resolving its first entry.
type cancelingResolver struct {
	cancel context.CancelFunc
}

func (r *cancelingResolver) Resolve(context.Context, *feed.RawEntry, string) (string, string) {
	r.cancel()
	return "", ""
}
