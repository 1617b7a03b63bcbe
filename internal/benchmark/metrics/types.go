package metrics

// AggregatedMetrics is the final, immutable output of a measurement phase.
// It is a plain data structure meant for JSON serialization; the field names
// are part of the export format and must stay stable.
type AggregatedMetrics struct {
	Summary    SummaryMetrics    `json:"summary"`
	Timeseries []TimeseriesPoint `json:"timeseries"`
	Histogram  []HistogramBucket `json:"histogram"`
	TopErrors  []ErrorSample     `json:"topErrors"`
}

// SummaryMetrics holds whole-run totals and the latency distribution.
type SummaryMetrics struct {
	TotalRequests    int64            `json:"totalRequests"`
	SuccessCount     int64            `json:"successCount"`
	ErrorCount       int64            `json:"errorCount"`
	ErrorRate        float64          `json:"errorRate"`
	RpsAvg           float64          `json:"rpsAvg"`
	RpsPeak          float64          `json:"rpsPeak"`
	BytesIn          int64            `json:"bytesIn"`
	BytesOut         int64            `json:"bytesOut"`
	Latency          LatencyMetrics   `json:"latency"`
	StatusCodeCounts map[string]int64 `json:"statusCodeCounts,omitempty"`
	ErrorTypeCounts  map[string]int64 `json:"errorTypeCounts,omitempty"`
}

// LatencyMetrics describes the latency distribution in milliseconds.
type LatencyMetrics struct {
	MinMs    float64 `json:"minMs"`
	AvgMs    float64 `json:"avgMs"`
	MaxMs    float64 `json:"maxMs"`
	StddevMs float64 `json:"stddevMs"`
	P50Ms    float64 `json:"p50Ms"`
	P90Ms    float64 `json:"p90Ms"`
	P95Ms    float64 `json:"p95Ms"`
	P99Ms    float64 `json:"p99Ms"`
}

// TimeseriesPoint is one one-second bucket of the run, keyed by the bucket's
// start timestamp. Points are emitted in ascending timestamp order.
type TimeseriesPoint struct {
	BucketTsMs   int64   `json:"bucketTsMs"`
	RpsSuccess   int64   `json:"rpsSuccess"`
	RpsError     int64   `json:"rpsError"`
	LatencyP95Ms float64 `json:"latencyP95Ms"`
	LatencyAvgMs float64 `json:"latencyAvgMs"`
	BytesIn      int64   `json:"bytesIn"`
	BytesOut     int64   `json:"bytesOut"`
}

// HistogramBucket is one non-empty bucket of the coarse display histogram.
type HistogramBucket struct {
	LowerBoundMs float64 `json:"lowerBoundMs"`
	UpperBoundMs float64 `json:"upperBoundMs"`
	Count        int64   `json:"count"`
}

// ErrorSample is one distinct (error type, status, message) combination with
// its occurrence count and, when captured, a truncated response body.
type ErrorSample struct {
	ErrorType  string `json:"errorType"`
	StatusCode int    `json:"statusCode,omitempty"`
	Message    string `json:"message"`
	Count      int64  `json:"count"`
	SampleBody string `json:"sampleBody,omitempty"`
}
