package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// histogramMinUs/histogramMaxUs bound the HDR percentile histogram:
	// 1 microsecond to 60 seconds, 3 significant figures.
	histogramMinUs   = 1
	histogramMaxUs   = 60_000_000
	histogramSigFigs = 3
	elapsedFloorSecs = 0.001
)

// displayEdgesMs are the fixed edges of the coarse human-readable histogram.
var displayEdgesMs = []float64{
	0, 1, 2, 5, 10, 20, 50, 100, 200, 500,
	1000, 2000, 5000, 10000, 20000, 30000, 45000, 60000,
}

type seriesBucket struct {
	success   int64
	errors    int64
	latencies []float64
	bytesIn   int64
	bytesOut  int64
}

// Aggregate reduces the measurement phase's samples into summary statistics,
// a per-second time series, a sparse display histogram, and the topK most
// frequent distinct errors.
//
// Cancelled samples are skipped entirely. Everything except the time series
// ordering is commutative, so the result does not depend on sample order.
func Aggregate(samples []Sample, startedAtMs, finishedAtMs int64, topK int) AggregatedMetrics {
	if topK < 1 {
		topK = 1
	}

	summary := SummaryMetrics{
		StatusCodeCounts: make(map[string]int64),
		ErrorTypeCounts:  make(map[string]int64),
	}
	var stats RunningStats
	latencyHist := hdrhistogram.New(histogramMinUs, histogramMaxUs, histogramSigFigs)
	displayCounts := make([]int64, len(displayEdgesMs)-1)
	series := make(map[int64]*seriesBucket)
	topErrorMap := make(map[string]*ErrorSample)

	for _, sample := range samples {
		if sample.Cancelled {
			continue
		}

		summary.TotalRequests++
		summary.BytesIn += sample.BytesIn
		summary.BytesOut += sample.BytesOut

		if sample.Success {
			summary.SuccessCount++
		} else {
			summary.ErrorCount++
		}

		if sample.StatusCode != 0 {
			summary.StatusCodeCounts[fmt.Sprintf("%d", sample.StatusCode)]++
		}

		if sample.ErrorType != "" {
			summary.ErrorTypeCounts[string(sample.ErrorType)]++

			key := fmt.Sprintf("%s|%d|%s", sample.ErrorType, sample.StatusCode, sample.ErrorMsg)
			entry, ok := topErrorMap[key]
			if !ok {
				message := sample.ErrorMsg
				if message == "" {
					message = "Unknown benchmark error"
				}
				entry = &ErrorSample{
					ErrorType:  string(sample.ErrorType),
					StatusCode: sample.StatusCode,
					Message:    message,
					SampleBody: sample.SampleBody,
				}
				topErrorMap[key] = entry
			}
			entry.Count++
			// First captured body wins; later duplicates never overwrite it.
			if entry.SampleBody == "" {
				entry.SampleBody = sample.SampleBody
			}
		}

		stats.Add(sample.LatencyMs)
		_ = latencyHist.RecordValue(clampLatencyUs(sample.LatencyMs))
		displayCounts[displayBucketIndex(sample.LatencyMs)]++

		bucketTs := (sample.TimestampMs / 1000) * 1000
		bucket, ok := series[bucketTs]
		if !ok {
			bucket = &seriesBucket{}
			series[bucketTs] = bucket
		}
		if sample.Success {
			bucket.success++
		} else {
			bucket.errors++
		}
		bucket.bytesIn += sample.BytesIn
		bucket.bytesOut += sample.BytesOut
		bucket.latencies = append(bucket.latencies, sample.LatencyMs)
	}

	if summary.TotalRequests > 0 {
		summary.ErrorRate = round3(float64(summary.ErrorCount) / float64(summary.TotalRequests) * 100.0)

		elapsedSecs := float64(finishedAtMs-startedAtMs) / 1000.0
		if elapsedSecs < elapsedFloorSecs {
			elapsedSecs = elapsedFloorSecs
		}
		summary.RpsAvg = round3(float64(summary.TotalRequests) / elapsedSecs)

		var peak int64
		for _, bucket := range series {
			if total := bucket.success + bucket.errors; total > peak {
				peak = total
			}
		}
		summary.RpsPeak = round3(float64(peak))

		summary.Latency = LatencyMetrics{
			MinMs:    round3(stats.Min()),
			AvgMs:    round3(stats.Mean()),
			MaxMs:    round3(stats.Max()),
			StddevMs: round3(stats.StdDev()),
			P50Ms:    round3(float64(latencyHist.ValueAtQuantile(50)) / 1000.0),
			P90Ms:    round3(float64(latencyHist.ValueAtQuantile(90)) / 1000.0),
			P95Ms:    round3(float64(latencyHist.ValueAtQuantile(95)) / 1000.0),
			P99Ms:    round3(float64(latencyHist.ValueAtQuantile(99)) / 1000.0),
		}
	}

	bucketKeys := make([]int64, 0, len(series))
	for ts := range series {
		bucketKeys = append(bucketKeys, ts)
	}
	sort.Slice(bucketKeys, func(i, j int) bool { return bucketKeys[i] < bucketKeys[j] })

	timeseries := make([]TimeseriesPoint, 0, len(bucketKeys))
	for _, ts := range bucketKeys {
		bucket := series[ts]
		sorted := bucket.latencies
		sort.Float64s(sorted)

		var avg float64
		if len(sorted) > 0 {
			var sum float64
			for _, value := range sorted {
				sum += value
			}
			avg = sum / float64(len(sorted))
		}

		timeseries = append(timeseries, TimeseriesPoint{
			BucketTsMs:   ts,
			RpsSuccess:   bucket.success,
			RpsError:     bucket.errors,
			LatencyP95Ms: round3(percentileSorted(sorted, 95)),
			LatencyAvgMs: round3(avg),
			BytesIn:      bucket.bytesIn,
			BytesOut:     bucket.bytesOut,
		})
	}

	histogram := make([]HistogramBucket, 0)
	for idx, count := range displayCounts {
		if count == 0 {
			continue
		}
		histogram = append(histogram, HistogramBucket{
			LowerBoundMs: displayEdgesMs[idx],
			UpperBoundMs: displayEdgesMs[idx+1],
			Count:        count,
		})
	}

	topErrors := make([]ErrorSample, 0, len(topErrorMap))
	for _, entry := range topErrorMap {
		topErrors = append(topErrors, *entry)
	}
	sort.Slice(topErrors, func(i, j int) bool {
		if topErrors[i].Count != topErrors[j].Count {
			return topErrors[i].Count > topErrors[j].Count
		}
		return topErrors[i].ErrorType < topErrors[j].ErrorType
	})
	if len(topErrors) > topK {
		topErrors = topErrors[:topK]
	}

	return AggregatedMetrics{
		Summary:    summary,
		Timeseries: timeseries,
		Histogram:  histogram,
		TopErrors:  topErrors,
	}
}

// clampLatencyUs converts a latency to whole microseconds within the HDR
// histogram's recordable range.
func clampLatencyUs(latencyMs float64) int64 {
	us := int64(math.Round(latencyMs * 1000.0))
	if us < histogramMinUs {
		return histogramMinUs
	}
	if us > histogramMaxUs {
		return histogramMaxUs
	}
	return us
}

// displayBucketIndex maps a latency onto the fixed display edges; values at
// or beyond the last edge land in the final bucket.
func displayBucketIndex(latencyMs float64) int {
	for idx := 0; idx < len(displayEdgesMs)-1; idx++ {
		if latencyMs >= displayEdgesMs[idx] && latencyMs < displayEdgesMs[idx+1] {
			return idx
		}
	}
	return len(displayEdgesMs) - 2
}

// percentileSorted reads the pct percentile from an ascending slice using the
// nearest-rank method.
func percentileSorted(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(pct/100.0*float64(len(sorted)))) - 1
	if index < 0 {
		index = 0
	}
	if index > len(sorted)-1 {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func round3(value float64) float64 {
	return math.Round(value*1000.0) / 1000.0
}
