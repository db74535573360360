package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/torosent/recurl/internal/metrics"
)

// PrintJSONReport writes the canonical summary record as a single JSON
// line, the form consumed by scripts and pipelines driving the run.
func PrintJSONReport(w io.Writer, summary metrics.Summary) error {
	return json.NewEncoder(w).Encode(summary)
}

// PrintReport writes a human-readable breakdown of the run.
func PrintReport(w io.Writer, runID string, summary metrics.Summary, launched int64, elapsed time.Duration) {
	fmt.Fprintln(w, "\n--- Run Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", runID)
	fmt.Fprintf(w, "Launched:          %d\n", launched)
	fmt.Fprintf(w, "Successful:        %d\n", summary.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", summary.ErrorCount)
	fmt.Fprintf(w, "Duration:          %s\n", elapsed.Round(time.Millisecond))
	if elapsed > 0 && summary.Total > 0 {
		fmt.Fprintf(w, "Invocations/sec:   %.2f\n", float64(summary.Total)/elapsed.Seconds())
	}

	if summary.Successes > 0 {
		fmt.Fprintln(w, "\nLatency (ms):")
		fmt.Fprintf(w, "  Mean:            %d\n", *summary.MeanTime)
		fmt.Fprintf(w, "  Min:             %d\n", *summary.MinTime)
		fmt.Fprintf(w, "  Max:             %d\n", *summary.MaxTime)
		fmt.Fprintf(w, "  Variance:        %d\n", *summary.VarianceTime)
		fmt.Fprintf(w, "  Q25:             %d\n", *summary.Quartile25)
		fmt.Fprintf(w, "  Q75:             %d\n", *summary.Quartile75)
		fmt.Fprintf(w, "  P50:             %s\n", summary.P50Latency)
		fmt.Fprintf(w, "  P90:             %s\n", summary.P90Latency)
		fmt.Fprintf(w, "  P99:             %s\n", summary.P99Latency)
	}

	if len(summary.StatusCount) > 0 {
		fmt.Fprintln(w, "\nStatus Codes:")
		codes := make([]string, 0, len(summary.StatusCount))
		for code := range summary.StatusCount {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Fprintf(w, "  %s: %d\n", code, summary.StatusCount[code])
		}
	}
}
