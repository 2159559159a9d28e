package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/riptide-dev/riptide/internal/metrics"
)

const (
	labelWidth    = 25
	minValueWidth = 40
)

// Report pairs the finalized metrics snapshot with the run parameters the
// summary table displays alongside it.
type Report struct {
	RunID       string           `json:"run_id"`
	TargetURL   string           `json:"target"`
	Concurrency int              `json:"concurrency"`
	Stats       metrics.Snapshot `json:"stats"`
}

// PrintReport renders the summary table.
func PrintReport(w io.Writer, r Report) {
	if r.Stats.Total == 0 {
		fmt.Fprintln(w, "\nNo requests were completed. Please check your network or target URL.")
		return
	}

	valueWidth := minValueWidth
	if len(r.TargetURL) > valueWidth {
		valueWidth = len(r.TargetURL)
	}
	separator := makeSeparator(labelWidth, valueWidth)

	row := func(label, value string) {
		fmt.Fprintf(w, "| %-*s | %-*s |\n", labelWidth, label, valueWidth, value)
		fmt.Fprintln(w, separator)
	}

	fmt.Fprintln(w, "\n*** Summary Report ***")
	fmt.Fprintln(w, separator)
	row("Run ID", r.RunID)
	row("Target URL", r.TargetURL)
	row("Concurrency", fmt.Sprintf("%d", r.Concurrency))
	row("Duration", fmt.Sprintf("%.3fs", r.Stats.ActualDuration.Seconds()))
	row("Total Requests", fmt.Sprintf("%d", r.Stats.Total))
	row("Successful Requests", fmt.Sprintf("%d", r.Stats.Successes))
	row("Failed Requests", fmt.Sprintf("%d", r.Stats.Failures))
	row("Min Request Time", fmt.Sprintf("%.3fms", r.Stats.MinMs))
	row("Median Request Time", fmt.Sprintf("%.3fms", r.Stats.MedianMs))
	row("Max Request Time", fmt.Sprintf("%.3fms", r.Stats.MaxMs))
	row("Avg Request Time", fmt.Sprintf("%.3fms", r.Stats.MeanMs))
	row("P90 Request Time", fmt.Sprintf("%.3fms", r.Stats.P90Ms))
	row("P99 Request Time", fmt.Sprintf("%.3fms", r.Stats.P99Ms))
	row("Requests/sec", fmt.Sprintf("%.2f", r.Stats.RequestsPerSec))

	if len(r.Stats.FailuresByKind) > 0 {
		fmt.Fprintln(w, "\nFailure Breakdown:")
		kinds := make([]string, 0, len(r.Stats.FailuresByKind))
		for kind := range r.Stats.FailuresByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %s: %d\n", kind, r.Stats.FailuresByKind[kind])
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func makeSeparator(labelWidth, valueWidth int) string {
	return fmt.Sprintf("+%s+%s+",
		strings.Repeat("-", labelWidth+2),
		strings.Repeat("-", valueWidth+2),
	)
}
