package imageresolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/oshoup521/NewsHub/internal/feed"
	"github.com/oshoup521/NewsHub/internal/logger"
)

// Strategy names, as reported by Resolve and used as metric labels.
const (
	StrategyMediaContent    = "media_content"
	StrategyEnclosure       = "enclosure"
	StrategyMediaThumbnail  = "media_thumbnail"
	StrategyImageField      = "image_field"
	StrategyContent         = "content"
	StrategyPublisherScrape = "publisher_scrape"
)

const imageMedium = "image"

// Strategy proposes candidate image URLs for an entry, best first.
// Candidates may be relative and are validated by the Resolver.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, entry *feed.RawEntry, feedURL string) []string
}

// DefaultStrategies returns the full chain in priority order. Page
// scraping is left out when scraper is nil.
func DefaultStrategies(registry *Registry, scraper Scraper, log logger.Logger) []Strategy {
	strategies := []Strategy{
		MediaContentStrategy{},
		EnclosureStrategy{},
		MediaThumbnailStrategy{},
		ImageFieldStrategy{},
		ContentStrategy{},
	}
	if scraper != nil {
		strategies = append(strategies, NewPublisherScrapeStrategy(registry, scraper, log))
	}
	return strategies
}

// MediaContentStrategy reads media:content elements flagged as images.
type MediaContentStrategy struct{}

func (MediaContentStrategy) Name() string { return StrategyMediaContent }

func (MediaContentStrategy) Extract(_ context.Context, entry *feed.RawEntry, _ string) []string {
	var urls []string
	for _, m := range entry.MediaContent {
		if m.Medium == imageMedium || strings.Contains(strings.ToLower(m.Type), imageMedium) {
			urls = appendNonEmpty(urls, m.URL)
		}
	}
	return urls
}

// EnclosureStrategy reads enclosures with an image MIME type.
type EnclosureStrategy struct{}

func (EnclosureStrategy) Name() string { return StrategyEnclosure }

func (EnclosureStrategy) Extract(_ context.Context, entry *feed.RawEntry, _ string) []string {
	var urls []string
	for _, enc := range entry.Enclosures {
		if strings.Contains(strings.ToLower(enc.Type), imageMedium) {
			urls = appendNonEmpty(urls, enc.URL)
		}
	}
	return urls
}

// MediaThumbnailStrategy reads the first media:thumbnail element.
type MediaThumbnailStrategy struct{}

func (MediaThumbnailStrategy) Name() string { return StrategyMediaThumbnail }

func (MediaThumbnailStrategy) Extract(_ context.Context, entry *feed.RawEntry, _ string) []string {
	if len(entry.MediaThumbnails) == 0 {
		return nil
	}
	return appendNonEmpty(nil, entry.MediaThumbnails[0].URL)
}

// ImageFieldStrategy reads the loosely typed image, itunes image and
// thumbnail fields, whatever shape they arrived in.
type ImageFieldStrategy struct{}

func (ImageFieldStrategy) Name() string { return StrategyImageField }

func (ImageFieldStrategy) Extract(_ context.Context, entry *feed.RawEntry, _ string) []string {
	var urls []string
	for _, field := range []feed.ImageField{entry.Image, entry.ITunesImage, entry.MediaThumbnail} {
		urls = appendNonEmpty(urls, field.URL())
	}
	return urls
}

// contentPatterns are tried in order; only the first one that matches is used.
var contentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["'][^>]*>`),
	regexp.MustCompile(`(?i)<img[^>]+src=([^>\s]+)[^>]*>`),
	regexp.MustCompile(`(?i)src=["']([^"']*\.(?:jpg|jpeg|png|gif|webp))["']`),
	regexp.MustCompile(`(?i)(https?://[^\s<>"]+\.(?:jpg|jpeg|png|gif|webp))`),
}

// ContentStrategy scans the entry body markup for an image reference.
type ContentStrategy struct{}

func (ContentStrategy) Name() string { return StrategyContent }

func (ContentStrategy) Extract(_ context.Context, entry *feed.RawEntry, _ string) []string {
	body := entry.Body()
	if body == "" {
		return nil
	}

	for _, re := range contentPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return appendNonEmpty(nil, m[1])
		}
	}
	return nil
}

// PublisherScrapeStrategy fetches the article page of entries from known
// publishers. It never fails: every error becomes "no candidate".
type PublisherScrapeStrategy struct {
	registry *Registry
	scraper  Scraper
	log      logger.Logger
}

// NewPublisherScrapeStrategy creates the page-scraping strategy.
func NewPublisherScrapeStrategy(registry *Registry, scraper Scraper, log logger.Logger) *PublisherScrapeStrategy {
	if registry == nil {
		registry = NewRegistry()
	}
	return &PublisherScrapeStrategy{registry: registry, scraper: scraper, log: log}
}

func (*PublisherScrapeStrategy) Name() string { return StrategyPublisherScrape }

func (s *PublisherScrapeStrategy) Extract(ctx context.Context, entry *feed.RawEntry, feedURL string) (urls []string) {
	pub := s.registry.Lookup(feedURL)
	link := entry.CanonicalLink()
	if pub == nil || link == "" {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Debug("Recovered from panic while scraping image",
				logger.String("url", link),
				logger.Any("panic", r),
			)
			urls = nil
		}
	}()

	found, err := s.scraper.Scrape(ctx, link, pub)
	if err != nil {
		s.log.Debug("Error in web scraping for image",
			logger.String("publisher", pub.Name),
			logger.String("url", link),
			logger.Error(fmt.Errorf("publisher scrape: %w", err)),
		)
		return nil
	}

	return appendNonEmpty(nil, found)
}

func appendNonEmpty(urls []string, u string) []string {
	if u = strings.TrimSpace(u); u != "" {
		urls = append(urls, u)
	}
	return urls
}
