// Package benchmark drives a configurable HTTP load test against a single
// target endpoint: it builds an immutable request template and transport
// client per run, executes warmup and measurement phases with a fixed worker
// pool, classifies every request outcome, and hands the resulting samples to
// the metrics aggregator.
package benchmark

import (
	"fmt"
	"time"
)

// LoadMode selects how the measurement phase is bounded.
type LoadMode string

const (
	// LoadFixedIterations stops after a configured number of requests.
	LoadFixedIterations LoadMode = "fixed_iterations"
	// LoadFixedDuration stops at a wall-clock deadline.
	LoadFixedDuration LoadMode = "fixed_duration"
)

// SaveBodies controls whether error response bodies are captured as
// diagnostic samples.
type SaveBodies string

const (
	SaveBodiesNone   SaveBodies = "none"
	SaveBodiesErrors SaveBodies = "errors"
)

// RequestSnapshot is the frozen request the benchmark replays. Header values
// arrive fully resolved; no variable interpolation or auth construction
// happens at this layer.
type RequestSnapshot struct {
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`
}

// Target names the request under test.
type Target struct {
	RequestID       string          `json:"requestId,omitempty" yaml:"requestId,omitempty"`
	RequestSnapshot RequestSnapshot `json:"requestSnapshot" yaml:"requestSnapshot"`
}

// LoadConfig bounds the measurement phase and sizes the worker pool.
type LoadConfig struct {
	Mode        LoadMode `json:"mode" yaml:"mode"`
	Iterations  int64    `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	DurationMs  int64    `json:"durationMs,omitempty" yaml:"durationMs,omitempty"`
	Concurrency int      `json:"concurrency" yaml:"concurrency"`
}

// TransportConfig configures the HTTP client built once per run.
type TransportConfig struct {
	KeepAlive       bool   `json:"keepAlive" yaml:"keepAlive"`
	FollowRedirects bool   `json:"followRedirects" yaml:"followRedirects"`
	ProxyURL        string `json:"proxyUrl,omitempty" yaml:"proxyUrl,omitempty"`
	VerifySSL       bool   `json:"verifySsl" yaml:"verifySsl"`
}

// TimingConfig holds the per-request timeout and the optional warmup bound.
// Warmup iterations take priority over warmup duration when both are set.
type TimingConfig struct {
	TimeoutMs        int64 `json:"timeoutMs" yaml:"timeoutMs"`
	WarmupDurationMs int64 `json:"warmupDurationMs,omitempty" yaml:"warmupDurationMs,omitempty"`
	WarmupIterations int64 `json:"warmupIterations,omitempty" yaml:"warmupIterations,omitempty"`
}

// LoggingConfig controls error-sample retention.
type LoggingConfig struct {
	SampleErrorsTopK int        `json:"sampleErrorsTopK" yaml:"sampleErrorsTopK"`
	SaveBodies       SaveBodies `json:"saveBodies" yaml:"saveBodies"`
}

// EnvConfig carries the variable snapshot recorded with a run. The engine
// does not interpolate it; it exists so a stored run reproduces its inputs.
type EnvConfig struct {
	VariablesSnapshot map[string]string `json:"variablesSnapshot,omitempty" yaml:"variablesSnapshot,omitempty"`
	RandomSeed        int64             `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
}

// Spec is the immutable configuration of one benchmark run.
type Spec struct {
	ID        string          `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string          `json:"name,omitempty" yaml:"name,omitempty"`
	Target    Target          `json:"target" yaml:"target"`
	Load      LoadConfig      `json:"load" yaml:"load"`
	Transport TransportConfig `json:"transport" yaml:"transport"`
	Timing    TimingConfig    `json:"timing" yaml:"timing"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Env       EnvConfig       `json:"env,omitempty" yaml:"env,omitempty"`
}

// PhaseWorkload bounds one phase: either a global iteration budget shared by
// all workers or a wall-clock duration.
type PhaseWorkload struct {
	Iterations int64
	Duration   time.Duration
}

// IsIterations reports whether the workload is iteration-bounded.
func (w PhaseWorkload) IsIterations() bool { return w.Iterations > 0 }

// Validate checks the spec before any request is sent. It fails fast on zero
// concurrency, zero timeout, or a load mode without a matching positive
// bound.
func (s *Spec) Validate() error {
	if s.Load.Concurrency <= 0 {
		return fmt.Errorf("benchmark concurrency must be greater than 0")
	}
	if s.Timing.TimeoutMs <= 0 {
		return fmt.Errorf("benchmark timeoutMs must be greater than 0")
	}
	if _, err := s.measurementWorkload(); err != nil {
		return err
	}
	return nil
}

// measurementWorkload resolves the measurement phase bound from the load
// config.
func (s *Spec) measurementWorkload() (PhaseWorkload, error) {
	switch s.Load.Mode {
	case LoadFixedIterations:
		if s.Load.Iterations <= 0 {
			return PhaseWorkload{}, fmt.Errorf("benchmark fixed_iterations mode requires iterations > 0")
		}
		return PhaseWorkload{Iterations: s.Load.Iterations}, nil
	case LoadFixedDuration:
		if s.Load.DurationMs <= 0 {
			return PhaseWorkload{}, fmt.Errorf("benchmark fixed_duration mode requires durationMs > 0")
		}
		return PhaseWorkload{Duration: time.Duration(s.Load.DurationMs) * time.Millisecond}, nil
	default:
		return PhaseWorkload{}, fmt.Errorf("unknown benchmark load mode %q", s.Load.Mode)
	}
}

// warmupWorkload returns the warmup phase bound, or false when no warmup is
// configured.
func (s *Spec) warmupWorkload() (PhaseWorkload, bool) {
	if s.Timing.WarmupIterations > 0 {
		return PhaseWorkload{Iterations: s.Timing.WarmupIterations}, true
	}
	if s.Timing.WarmupDurationMs > 0 {
		return PhaseWorkload{Duration: time.Duration(s.Timing.WarmupDurationMs) * time.Millisecond}, true
	}
	return PhaseWorkload{}, false
}

// Timeout returns the per-request timeout.
func (s *Spec) Timeout() time.Duration {
	return time.Duration(s.Timing.TimeoutMs) * time.Millisecond
}
