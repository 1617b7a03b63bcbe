// Package output renders benchmark results for humans (colored console
// report) and machines (JSON).
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/surgehttp/surge/internal/benchmark"
	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

// Format selects how results are rendered.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Renderer writes benchmark results to a writer.
type Renderer struct {
	writer io.Writer
	scheme *ColorScheme
}

// NewRenderer creates a Renderer for w. Colors are enabled only when w is a
// terminal.
func NewRenderer(w io.Writer) *Renderer {
	scheme := NoColorScheme()
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		scheme = DefaultColorScheme()
	}
	return &Renderer{writer: w, scheme: scheme}
}

// WriteJSON emits the execution result as indented JSON.
func (r *Renderer) WriteJSON(result *benchmark.ExecutionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	_, err = fmt.Fprintln(r.writer, string(data))
	return err
}

// WriteConsole emits a human-readable report of the execution result.
func (r *Renderer) WriteConsole(runID string, result *benchmark.ExecutionResult) error {
	summary := result.Metrics.Summary

	r.title("Benchmark result")
	r.row("Run", runID)
	if result.Cancelled {
		r.rowColored("Status", "cancelled", r.scheme.Warn)
	} else {
		r.rowColored("Status", "completed", r.scheme.Success)
	}

	r.title("Summary")
	r.row("Requests", fmt.Sprintf("%d (%d ok / %d failed)",
		summary.TotalRequests, summary.SuccessCount, summary.ErrorCount))
	errorColor := r.scheme.Success
	if summary.ErrorCount > 0 {
		errorColor = r.scheme.Error
	}
	r.rowColored("Error rate", fmt.Sprintf("%.3f%%", summary.ErrorRate), errorColor)
	r.row("Throughput", fmt.Sprintf("%.3f req/s avg, %.0f req/s peak", summary.RpsAvg, summary.RpsPeak))
	r.row("Transfer", fmt.Sprintf("%s in, %s out",
		formatBytes(summary.BytesIn), formatBytes(summary.BytesOut)))

	if summary.TotalRequests > 0 {
		lat := summary.Latency
		r.title("Latency (ms)")
		r.row("min/avg/max", fmt.Sprintf("%.3f / %.3f / %.3f", lat.MinMs, lat.AvgMs, lat.MaxMs))
		r.row("stddev", fmt.Sprintf("%.3f", lat.StddevMs))
		r.row("p50/p90/p95/p99", fmt.Sprintf("%.3f / %.3f / %.3f / %.3f",
			lat.P50Ms, lat.P90Ms, lat.P95Ms, lat.P99Ms))
	}

	if len(summary.StatusCodeCounts) > 0 {
		r.title("Status codes")
		for _, code := range sortedKeys(summary.StatusCodeCounts) {
			r.row(code, fmt.Sprintf("%d", summary.StatusCodeCounts[code]))
		}
	}

	if len(result.Metrics.Histogram) > 0 {
		r.title("Latency histogram")
		r.writeHistogram(result.Metrics.Histogram, summary.TotalRequests)
	}

	if len(result.Metrics.TopErrors) > 0 {
		r.title("Top errors")
		for _, sample := range result.Metrics.TopErrors {
			label := sample.ErrorType
			if sample.StatusCode != 0 {
				label = fmt.Sprintf("%s (%d)", sample.ErrorType, sample.StatusCode)
			}
			r.rowColored(label, fmt.Sprintf("%d× %s", sample.Count, sample.Message), r.scheme.Error)
		}
	}

	return nil
}

func (r *Renderer) writeHistogram(buckets []metrics.HistogramBucket, total int64) {
	const barWidth = 40
	var maxCount int64
	for _, bucket := range buckets {
		if bucket.Count > maxCount {
			maxCount = bucket.Count
		}
	}
	for _, bucket := range buckets {
		filled := 0
		if maxCount > 0 {
			filled = int(bucket.Count * barWidth / maxCount)
		}
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		share := float64(bucket.Count) / float64(total) * 100.0
		fmt.Fprintf(r.writer, "  %8.0f-%-8.0f %s %d (%.1f%%)\n",
			bucket.LowerBoundMs, bucket.UpperBoundMs, bar, bucket.Count, share)
	}
}

func (r *Renderer) title(text string) {
	fmt.Fprintf(r.writer, "\n%s\n", r.scheme.Title.Sprint(text))
}

func (r *Renderer) row(label, value string) {
	fmt.Fprintf(r.writer, "  %s %s\n", r.scheme.Label.Sprintf("%-18s", label), value)
}

func (r *Renderer) rowColored(label, value string, c *color.Color) {
	fmt.Fprintf(r.writer, "  %s %s\n", r.scheme.Label.Sprintf("%-18s", label), c.Sprint(value))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GiB", float64(n)/float64(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
