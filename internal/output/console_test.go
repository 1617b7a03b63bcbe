package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/surgehttp/surge/internal/benchmark"
	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

func sampleResult() *benchmark.ExecutionResult {
	aggregated := metrics.Aggregate([]metrics.Sample{
		{TimestampMs: 1000, LatencyMs: 12, StatusCode: 200, Success: true, BytesIn: 256, BytesOut: 64},
		{TimestampMs: 1200, LatencyMs: 18, StatusCode: 200, Success: true, BytesIn: 256, BytesOut: 64},
		{TimestampMs: 1500, LatencyMs: 90, StatusCode: 503, ErrorType: metrics.ErrorHTTP5xx, ErrorMsg: "HTTP 503", BytesIn: 128, BytesOut: 64},
	}, 1000, 2000, 10)
	return &benchmark.ExecutionResult{Metrics: aggregated}
}

func TestWriteConsole(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewRenderer(&buf)

	if err := renderer.WriteConsole("run-1-1", sampleResult()); err != nil {
		t.Fatalf("WriteConsole() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Benchmark result",
		"run-1-1",
		"completed",
		"3 (2 ok / 1 failed)",
		"Latency (ms)",
		"Status codes",
		"503",
		"Latency histogram",
		"Top errors",
		"HTTP_STATUS_5XX (503)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("console output contains ANSI escapes for a non-terminal writer")
	}
}

func TestWriteConsole_Cancelled(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewRenderer(&buf)

	result := sampleResult()
	result.Cancelled = true
	if err := renderer.WriteConsole("run-1-2", result); err != nil {
		t.Fatalf("WriteConsole() error = %v", err)
	}
	if !strings.Contains(buf.String(), "cancelled") {
		t.Error("cancelled run not reported as cancelled")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewRenderer(&buf)

	if err := renderer.WriteJSON(sampleResult()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded benchmark.ExecutionResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Metrics.Summary.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", decoded.Metrics.Summary.TotalRequests)
	}

	// The wire format uses the camelCase field names downstream consumers
	// expect.
	for _, key := range []string{"totalRequests", "rpsAvg", "p95Ms", "bucketTsMs", "lowerBoundMs", "errorType"} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("JSON output missing key %q", key)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KiB"},
		{5 << 20, "5.00 MiB"},
		{3 << 30, "3.00 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
