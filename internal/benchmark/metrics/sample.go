// Package metrics aggregates per-request benchmark samples into summary
// statistics, latency distributions, a per-second time series, and ranked
// error samples.
package metrics

// ErrorType classifies why a request attempt failed.
//
// The taxonomy is closed: every non-success sample carries exactly one of
// these tags, so aggregate error counts are total over the set.
type ErrorType string

const (
	ErrorDNS       ErrorType = "DNS_ERROR"
	ErrorConnect   ErrorType = "CONNECT_ERROR"
	ErrorTLS       ErrorType = "TLS_ERROR"
	ErrorTimeout   ErrorType = "TIMEOUT"
	ErrorRead      ErrorType = "READ_ERROR"
	ErrorHTTP4xx   ErrorType = "HTTP_STATUS_4XX"
	ErrorHTTP5xx   ErrorType = "HTTP_STATUS_5XX"
	ErrorCancelled ErrorType = "CANCELED"
)

// Sample is the classified outcome of one request attempt.
//
// Samples are produced by a single worker, never mutated afterwards, and
// consumed exactly once by Aggregate. A sample with Cancelled set is dropped
// from every aggregate: it represents an attempt interrupted by the run-level
// cancellation broadcast, not a measurement.
type Sample struct {
	// TimestampMs is the completion time in milliseconds since the epoch.
	TimestampMs int64

	// LatencyMs is the elapsed wall time of the attempt.
	LatencyMs float64

	// StatusCode is the HTTP status, or 0 when no response was obtained.
	StatusCode int

	Success   bool
	ErrorType ErrorType
	ErrorMsg  string

	BytesIn  int64
	BytesOut int64

	// SampleBody holds a size-capped copy of an error response body when
	// body capture is enabled; empty otherwise.
	SampleBody string

	Cancelled bool
}
