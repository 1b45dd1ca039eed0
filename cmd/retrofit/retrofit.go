// Package retrofit implements the retrofit command, which backfills images
// for stored articles that have none.
package retrofit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/oshoup521/NewsHub/cmd/common"
	"github.com/oshoup521/NewsHub/internal/httpclient"
	"github.com/oshoup521/NewsHub/internal/imageresolver"
	internalretrofit "github.com/oshoup521/NewsHub/internal/retrofit"
)

const maxTitleWidth = 50

// Command creates the retrofit command.
func Command(load common.DepsLoader) *cobra.Command {
	var (
		limit int
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "retrofit",
		Short: "Scrape article pages for images missing from stored articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := load()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			if cmd.Flags().Changed("limit") {
				deps.Config.Retrofit.Limit = limit
			}
			if cmd.Flags().Changed("delay") {
				deps.Config.Retrofit.Delay = delay
			}

			return Run(cmd.Context(), deps, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", internalretrofit.DefaultLimit, "maximum number of articles to visit")
	cmd.Flags().DurationVar(&delay, "delay", internalretrofit.DefaultDelay, "pause between page requests")

	return cmd
}

// Run executes one retrofit pass and writes a summary to out.
func Run(ctx context.Context, deps *common.CommandDeps, out io.Writer) (err error) {
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

	cfg := deps.Config.Retrofit.WithDefaults()
	session := httpclient.NewSession(httpclient.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   deps.Config.Fetcher.Timeout,
	})
	defer session.Close()

	r := internalretrofit.New(cfg, store,
		imageresolver.NewPageScraper(session, deps.Logger),
		deps.Logger,
		internalretrofit.WithMetrics(deps.Metrics),
	)

	result, runErr := r.Run(ctx)
	if result != nil {
		renderSummary(out, result)
	}

	return runErr
}

func renderSummary(out io.Writer, result *internalretrofit.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Article", "Feed", "Result", "Image"})
	for _, a := range result.Articles {
		t.AppendRow(table.Row{a.Title, a.FeedName, a.Result, a.ImageURL})
	}
	t.AppendFooter(table.Row{"Updated", "", result.Updated, ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Article", WidthMax: maxTitleWidth},
	})

	t.Render()
}
