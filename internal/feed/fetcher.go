package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a whole feed fetch, parse included.
const DefaultTimeout = 30 * time.Second

// Fetcher retrieves and parses one feed document. Every failure comes back
// as a *FetchError; nothing escapes as a panic.
type Fetcher struct {
	http    HTTPFetcher
	timeout time.Duration
}

// NewFetcher creates a Fetcher. A non-positive timeout uses DefaultTimeout.
func NewFetcher(httpFetcher HTTPFetcher, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{http: httpFetcher, timeout: timeout}
}

// Fetch downloads and parses the feed at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = ClassifyParseError(fmt.Errorf("panic while parsing: %v", r), url)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, fetchErr := f.http.Fetch(ctx, url)
	if fetchErr != nil {
		return nil, ClassifyNetworkError(fetchErr, url)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPStatus(resp.StatusCode, url)
	}

	parsed, parseErr := Parse(ctx, resp.Body)
	if parseErr != nil {
		return nil, ClassifyParseError(parseErr, url)
	}

	return parsed, nil
}
