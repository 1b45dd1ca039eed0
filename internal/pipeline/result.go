package pipeline

import "time"

// FeedResult summarizes one feed's pass through the pipeline.
type FeedResult struct {
	FeedID    int64
	FeedName  string
	FeedURL   string
	Entries   int
	Saved     int
	Skipped   int
	Duplicate int
	Failed    int
	Images    int
	Malformed bool
	// Interrupted is set when the run was cancelled while this feed was in
	// flight. Saved still counts what was stored before that.
	Interrupted bool
	// Err is set when the feed as a whole failed or was interrupted.
	Err error
}

// Succeeded reports whether the feed was fetched and processed.
func (r *FeedResult) Succeeded() bool {
	return r.Err == nil
}

// RunResult summarizes a pipeline run. Feeds holds only the feeds that were
// started; a cancelled run leaves the rest out.
type RunResult struct {
	Feeds    []*FeedResult
	Duration time.Duration
}

// TotalSaved is the number of new articles across all feeds.
func (r *RunResult) TotalSaved() int {
	total := 0
	for _, f := range r.Feeds {
		total += f.Saved
	}
	return total
}

// FailedFeeds is the number of feeds that failed as a whole. Interrupted
// feeds are not counted.
func (r *RunResult) FailedFeeds() int {
	failed := 0
	for _, f := range r.Feeds {
		if !f.Succeeded() && !f.Interrupted {
			failed++
		}
	}
	return failed
}
