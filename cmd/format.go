package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sells-group/fincal/internal/export"
	"github.com/sells-group/fincal/internal/pipeline"
	"github.com/sells-group/fincal/internal/source"
	"github.com/sells-group/fincal/internal/warehouse"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatTableReports(w io.Writer, reports []source.TableReport) {
	tw := newTable(w)
	fmt.Fprintln(tw, "TABLE\tFILE\tSTATUS\tROWS\tSKIPPED\tERROR")
	for _, r := range reports {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", r.Table, r.File, r.Status, r.Rows, r.Skipped, msg)
	}
	tw.Flush() //nolint:errcheck
}

func formatLoadSummary(w io.Writer, s pipeline.Summary) {
	fmt.Fprintf(w, "batch %s\n", s.BatchID)
	tw := newTable(w)
	fmt.Fprintln(tw, "DATASET\tROWS\tDURATION")
	for _, r := range s.Results {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Dataset, r.Rows, r.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(tw, "total\t%d\t\n", s.Rows())
	tw.Flush() //nolint:errcheck
}

func formatExportResults(w io.Writer, results []export.Result) {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATASET\tROWS\tFILE\tS3 KEY")
	for _, r := range results {
		key := r.Key
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Dataset, r.Rows, r.Path, key)
	}
	tw.Flush() //nolint:errcheck
}

func formatLoadHistory(w io.Writer, entries []warehouse.LoadEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no loads recorded")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tBATCH\tDATASET\tSTATUS\tSTARTED\tDURATION\tROWS\tERROR")
	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.BatchID, e.Dataset, e.Status, e.StartedAt.UTC().Format(time.DateTime), dur, e.RowsLoaded, e.Error)
	}
	tw.Flush() //nolint:errcheck
}

func formatRenames(w io.Writer, renames []source.Rename, dryRun bool) {
	if len(renames) == 0 {
		fmt.Fprintln(w, "nothing to rename")
		return
	}
	verb := "renamed"
	if dryRun {
		verb = "would rename"
	}
	for _, r := range renames {
		if r.Skipped {
			fmt.Fprintf(w, "skipped %s: %s\n", r.From, r.Reason)
			continue
		}
		fmt.Fprintf(w, "%s %s -> %s\n", verb, r.From, r.To)
	}
}
