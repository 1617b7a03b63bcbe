package benchmark

import (
	"fmt"

	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

// ExecutionResult is what one benchmark run returns across the orchestration
// boundary.
type ExecutionResult struct {
	Metrics   metrics.AggregatedMetrics `json:"metrics"`
	Cancelled bool                      `json:"cancelled"`
}

// Execute validates the spec, builds the transport client and request
// template once, optionally runs a discarded warmup phase, then runs the
// measurement phase and aggregates its samples.
//
// Cancellation is observed through cancelCh (the registry's broadcast). A
// run cancelled during warmup returns immediately with empty metrics and the
// cancelled flag set; a run cancelled mid-measurement returns partial but
// valid metrics from whatever samples were collected.
func Execute(spec *Spec, cancelCh <-chan struct{}) (*ExecutionResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	client, err := BuildClient(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build benchmark HTTP client: %w", err)
	}
	template, err := BuildRequestTemplate(spec)
	if err != nil {
		return nil, err
	}

	if workload, ok := spec.warmupWorkload(); ok {
		warmup, err := runPhase(client, template, workload, spec.Load.Concurrency, false, spec.Logging.SaveBodies, cancelCh)
		if err != nil {
			return nil, err
		}
		if warmup.Cancelled {
			return &ExecutionResult{Cancelled: true}, nil
		}
	}

	workload, err := spec.measurementWorkload()
	if err != nil {
		return nil, err
	}

	measurement, err := runPhase(client, template, workload, spec.Load.Concurrency, true, spec.Logging.SaveBodies, cancelCh)
	if err != nil {
		return nil, err
	}

	aggregated := metrics.Aggregate(
		measurement.Samples,
		measurement.StartedAtMs,
		measurement.FinishedAtMs,
		spec.Logging.SampleErrorsTopK,
	)

	return &ExecutionResult{
		Metrics:   aggregated,
		Cancelled: measurement.Cancelled,
	}, nil
}
