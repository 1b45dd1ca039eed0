package imageresolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"

	"github.com/oshoup521/NewsHub/internal/httpclient"
	"github.com/oshoup521/NewsHub/internal/logger"
)

// ErrNoImage is returned when a scraped page holds no acceptable image.
var ErrNoImage = errors.New("no image found on page")

// Scraper fetches an article page and extracts its lead image.
type Scraper interface {
	Scrape(ctx context.Context, pageURL string, pub *Publisher) (string, error)
}

// PageScraper scrapes article pages with colly over the run's shared HTTP
// session. A fresh collector is built per page so visits never collide.
type PageScraper struct {
	client    *http.Client
	userAgent string
	log       logger.Logger
}

// NewPageScraper creates a scraper bound to session.
func NewPageScraper(session *httpclient.Session, log logger.Logger) *PageScraper {
	return &PageScraper{
		client:    session.Client,
		userAgent: session.UserAgent,
		log:       log,
	}
}

// Scrape visits pageURL and scans it with ScanDocument. Transport failures,
// non-2xx statuses and pages without an image are all returned as errors.
func (s *PageScraper) Scrape(ctx context.Context, pageURL string, pub *Publisher) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetClient(s.client)

	var found string
	c.OnHTML("html", func(e *colly.HTMLElement) {
		if found != "" {
			return
		}
		found = ScanDocument(e.DOM, e.Request.URL.String(), pub)
	})

	if err := c.Visit(pageURL); err != nil {
		return "", fmt.Errorf("scrape %s: %w", pageURL, err)
	}

	if found == "" {
		return "", ErrNoImage
	}

	s.log.Debug("Scraped article image",
		logger.String("url", pageURL),
		logger.String("image_url", found),
	)
	return found, nil
}
