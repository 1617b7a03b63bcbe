// Package store persists benchmark runs behind a small capability interface
// with an in-memory variant and a SQLite-backed variant, selected by
// dependency injection.
package store

import (
	"errors"

	"github.com/surgehttp/surge/internal/benchmark"
	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

// ErrNotFound is returned when a run ID has no record.
var ErrNotFound = errors.New("benchmark run not found")

// RunStatus is the lifecycle state of a stored run.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusCancelled RunStatus = "cancelled"
	StatusFailed    RunStatus = "failed"
)

// RunSummary is the listing row for a run.
type RunSummary struct {
	RunID      string    `json:"runId"`
	SpecID     string    `json:"specId"`
	RequestID  string    `json:"requestId,omitempty"`
	Status     RunStatus `json:"status"`
	CreatedAt  int64     `json:"createdAt"`
	StartedAt  int64     `json:"startedAt,omitempty"`
	FinishedAt int64     `json:"finishedAt,omitempty"`
	SpecHash   string    `json:"specHash,omitempty"`
}

// RunDetail is the full stored record of a run: its summary, the spec it
// executed, the host fingerprint, and (once finished) the aggregated
// metrics.
type RunDetail struct {
	Run         RunSummary                       `json:"run"`
	Spec        benchmark.Spec                   `json:"spec"`
	Environment benchmark.EnvironmentFingerprint `json:"environmentFingerprint"`
	Metrics     *metrics.AggregatedMetrics       `json:"metrics,omitempty"`
}

// RunStore persists benchmark runs. Implementations must be safe for
// concurrent use.
type RunStore interface {
	// CreateRun stores the spec and the initial run record.
	CreateRun(detail *RunDetail) error

	// UpdateRunStatus transitions a run's lifecycle state. A zero
	// startedAt or finishedAt leaves the stored value unchanged.
	UpdateRunStatus(runID string, status RunStatus, startedAt, finishedAt int64) error

	// AttachMetrics stores the aggregated metrics of a finished run.
	AttachMetrics(runID string, aggregated *metrics.AggregatedMetrics) error

	// GetRun loads the full record for runID, or ErrNotFound.
	GetRun(runID string) (*RunDetail, error)

	// ListRuns returns run summaries, newest first. A limit <= 0 means
	// no limit.
	ListRuns(limit int) ([]RunSummary, error)

	// DeleteRun removes a run and its metrics, or returns ErrNotFound.
	DeleteRun(runID string) error

	// Close releases any underlying resources.
	Close() error
}
