package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps how much of a feed response is read.
const maxBodyBytes = 20 << 20

// HTTPFetcher performs the raw GET for a feed URL.
type HTTPFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResponse, error)
}

// FetchResponse is the raw result of a feed GET.
type FetchResponse struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// DefaultHTTPFetcher implements HTTPFetcher using net/http.
type DefaultHTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher backed by the given client. The
// client carries the run's timeout and user agent.
func NewHTTPFetcher(client *http.Client) *DefaultHTTPFetcher {
	return &DefaultHTTPFetcher{client: client}
}

// Fetch performs an HTTP GET and reads the body of 200 responses.
func (f *DefaultHTTPFetcher) Fetch(ctx context.Context, url string) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("http fetcher new request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("http fetcher do request: %w", doErr)
	}
	defer resp.Body.Close()

	result := &FetchResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return result, nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil {
		return nil, fmt.Errorf("http fetcher read body: %w", readErr)
	}
	result.Body = body

	return result, nil
}
