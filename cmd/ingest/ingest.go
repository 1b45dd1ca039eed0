// Package ingest implements the ingest command, one pass of the feed
// ingestion pipeline over the active feeds.
package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oshoup521/NewsHub/cmd/common"
	"github.com/oshoup521/NewsHub/internal/feed"
	"github.com/oshoup521/NewsHub/internal/httpclient"
	"github.com/oshoup521/NewsHub/internal/imageresolver"
	"github.com/oshoup521/NewsHub/internal/normalize"
	"github.com/oshoup521/NewsHub/internal/pipeline"
)

// Command creates the ingest command.
func Command(load common.DepsLoader) *cobra.Command {
	var (
		feedIDs     []int64
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch active feeds and store new articles",
		Long: `Fetch every active feed, or only those given with --feeds, normalize
their entries, resolve an image for each and store the articles not seen before.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			if cmd.Flags().Changed("concurrency") {
				deps.Config.Pipeline.Concurrency = concurrency
			}

			return Run(cmd.Context(), deps, feedIDs, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int64SliceVar(&feedIDs, "feeds", nil, "only process these feed ids (comma separated)")
	cmd.Flags().IntVar(&concurrency, "concurrency", pipeline.DefaultConcurrency, "number of feeds processed at once")

	return cmd
}

// Run executes one ingestion pass and writes a per-feed summary to out.
// One HTTP session serves every fetch and page scrape of the run.
func Run(ctx context.Context, deps *common.CommandDeps, feedIDs []int64, out io.Writer) (err error) {
	defer func() {
		if finishErr := deps.Finish(); finishErr != nil && err == nil {
			err = finishErr
		}
	}()

	store, closeStore, err := common.OpenStore(ctx, deps)
	if err != nil {
		return err
	}
	defer closeStore()

	session := httpclient.NewSession(deps.Config.Fetcher)
	defer session.Close()

	log := deps.Logger
	scraper := imageresolver.NewPageScraper(session, log)
	resolver := imageresolver.NewResolver(log,
		imageresolver.DefaultStrategies(imageresolver.NewRegistry(), scraper, log)...,
	)

	p := pipeline.New(
		deps.Config.Pipeline,
		store,
		feed.NewFetcher(feed.NewHTTPFetcher(session.Client), deps.Config.Fetcher.Timeout),
		normalize.New(log),
		resolver,
		deps.Metrics,
		log,
	)

	result, runErr := p.Run(ctx, feedIDs)
	if result != nil {
		RenderSummary(out, result)
	}

	return runErr
}
