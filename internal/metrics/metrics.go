// Package metrics exposes ingestion and retrofit counters for Prometheus.
// Runs are short-lived, so the registry is written out as a node_exporter
// textfile at the end of each run instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric.
const Namespace = "newshub"

// Feed outcome labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Skip reasons.
const (
	SkipInvalid   = "invalid"
	SkipDuplicate = "duplicate"
	SkipError     = "error"
)

// Retrofit results.
const (
	RetrofitUpdated  = "updated"
	RetrofitNotFound = "not_found"
	RetrofitError    = "error"
)

// Metrics holds the run metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	FeedsProcessed    *prometheus.CounterVec
	ArticlesSaved     prometheus.Counter
	EntriesSkipped    *prometheus.CounterVec
	ImagesResolved    *prometheus.CounterVec
	FeedFetchDuration prometheus.Histogram
	RetrofitArticles  *prometheus.CounterVec
}

// New creates and registers all metrics on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initPipelineMetrics(factory)
	m.initRetrofitMetrics(factory)

	return m
}

func (m *Metrics) initPipelineMetrics(factory promauto.Factory) {
	m.FeedsProcessed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "feeds_processed_total",
			Help:      "Total number of feeds processed, by outcome",
		},
		[]string{"status"},
	)

	m.ArticlesSaved = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "articles_saved_total",
			Help:      "Total number of new articles persisted",
		},
	)

	m.EntriesSkipped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "entries_skipped_total",
			Help:      "Total number of feed entries not persisted, by reason",
		},
		[]string{"reason"},
	)

	m.ImagesResolved = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "images_resolved_total",
			Help:      "Total number of article images found, by strategy",
		},
		[]string{"strategy"},
	)

	m.FeedFetchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of feed fetch and parse in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)
}

func (m *Metrics) initRetrofitMetrics(factory promauto.Factory) {
	m.RetrofitArticles = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retrofit_articles_total",
			Help:      "Total number of articles visited by the image retrofit, by result",
		},
		[]string{"result"},
	)
}

// FeedProcessed records one feed outcome and how long its fetch took.
func (m *Metrics) FeedProcessed(success bool, fetchDuration time.Duration) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if !success {
		status = StatusFailure
	}
	m.FeedsProcessed.WithLabelValues(status).Inc()
	m.FeedFetchDuration.Observe(fetchDuration.Seconds())
}

// ArticleSaved records a persisted article.
func (m *Metrics) ArticleSaved() {
	if m == nil {
		return
	}
	m.ArticlesSaved.Inc()
}

// EntrySkipped records an entry that was not persisted.
func (m *Metrics) EntrySkipped(reason string) {
	if m == nil {
		return
	}
	m.EntriesSkipped.WithLabelValues(reason).Inc()
}

// ImageResolved records which strategy found an image.
func (m *Metrics) ImageResolved(strategy string) {
	if m == nil {
		return
	}
	m.ImagesResolved.WithLabelValues(strategy).Inc()
}

// RetrofitResult records the outcome for one retrofitted article.
func (m *Metrics) RetrofitResult(result string) {
	if m == nil {
		return
	}
	m.RetrofitArticles.WithLabelValues(result).Inc()
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format. The write is atomic.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
