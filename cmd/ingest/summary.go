package ingest

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/oshoup521/NewsHub/internal/pipeline"
)

const maxErrorWidth = 60

// RenderSummary writes one row per feed plus a totals footer.
func RenderSummary(out io.Writer, result *pipeline.RunResult) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Feed", "Status", "Entries", "New", "Duplicate", "Skipped", "Failed", "Images", "Error"})

	for _, f := range result.Feeds {
		status := "ok"
		errMsg := ""
		switch {
		case f.Interrupted:
			status = "interrupted"
		case !f.Succeeded():
			status = "failed"
			errMsg = f.Err.Error()
		case f.Malformed:
			status = "ok (malformed)"
		}

		t.AppendRow(table.Row{
			f.FeedID,
			f.FeedName,
			status,
			f.Entries,
			f.Saved,
			f.Duplicate,
			f.Skipped,
			f.Failed,
			f.Images,
			errMsg,
		})
	}

	t.AppendFooter(table.Row{"", "Total", "", "", result.TotalSaved(), "", "", "", "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Error", WidthMax: maxErrorWidth},
	})

	t.Render()
}
