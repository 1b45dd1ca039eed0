// Package imageresolver picks a representative image for a feed entry.
//
// Strategies run in priority order and the first candidate that resolves
// to an absolute http(s) URL and passes IsValidImage wins. Later strategies,
// including the network-bound page scrape, are not consulted once an image
// is found.
package imageresolver

import (
	"context"

	"github.com/oshoup521/NewsHub/internal/feed"
	"github.com/oshoup521/NewsHub/internal/logger"
)

// Resolver runs a strategy chain.
type Resolver struct {
	strategies []Strategy
	log        logger.Logger
}

// NewResolver creates a Resolver over strategies, in the given order.
func NewResolver(log logger.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, log: log}
}

// Resolve returns the winning image URL and the name of the strategy that
// produced it. Both are empty when no strategy yields a valid image.
func (r *Resolver) Resolve(ctx context.Context, entry *feed.RawEntry, feedURL string) (imageURL, strategy string) {
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			return "", ""
		}

		for _, candidate := range s.Extract(ctx, entry, feedURL) {
			abs, ok := ResolveURL(feedURL, candidate)
			if !ok || !IsValidImage(abs) {
				r.log.Debug("Rejected image candidate",
					logger.String("strategy", s.Name()),
					logger.String("candidate", candidate),
				)
				continue
			}
			return abs, s.Name()
		}
	}
	return "", ""
}
