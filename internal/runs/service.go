// Package runs manages the lifecycle of benchmark runs: it assigns run IDs,
// records lifecycle transitions in a RunStore, wires each run into the
// cancellation registry, and exposes list/get/delete/export on stored runs.
package runs

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/surgehttp/surge/internal/benchmark"
	"github.com/surgehttp/surge/internal/store"
)

// Service coordinates run execution against a store and a cancellation
// registry.
type Service struct {
	store    store.RunStore
	registry *benchmark.Registry
	counter  atomic.Int64
}

// NewService creates a Service on top of the given store.
func NewService(runStore store.RunStore, registry *benchmark.Registry) *Service {
	return &Service{store: runStore, registry: registry}
}

// Registry exposes the cancellation registry so a command layer can cancel
// runs by ID.
func (s *Service) Registry() *benchmark.Registry { return s.registry }

func nowMs() int64 {
	return time.Now().UnixMilli()
}

func (s *Service) generateID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, nowMs(), s.counter.Add(1))
}

// Prepare validates the spec and records a queued run for it, returning the
// run ID under which the run can be cancelled.
func (s *Service) Prepare(spec *benchmark.Spec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	runID := s.generateID("run")
	specID := spec.ID
	if specID == "" {
		specID = s.generateID("spec")
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("failed to serialize spec: %w", err)
	}

	detail := &store.RunDetail{
		Run: store.RunSummary{
			RunID:     runID,
			SpecID:    specID,
			RequestID: spec.Target.RequestID,
			Status:    store.StatusQueued,
			CreatedAt: nowMs(),
			SpecHash:  fmt.Sprintf("%x", md5.Sum(specJSON)),
		},
		Spec:        *spec,
		Environment: benchmark.CollectEnvironmentFingerprint(),
	}

	if err := s.store.CreateRun(detail); err != nil {
		return "", err
	}
	return runID, nil
}

// Execute runs a prepared run to completion, moving it through
// running -> completed | cancelled | failed and attaching metrics on
// success. It blocks until the run finishes or is cancelled.
func (s *Service) Execute(runID string, spec *benchmark.Spec) (*benchmark.ExecutionResult, error) {
	cancelCh := s.registry.Register(runID)
	defer s.registry.Remove(runID)

	if err := s.store.UpdateRunStatus(runID, store.StatusRunning, nowMs(), 0); err != nil {
		return nil, err
	}

	result, err := benchmark.Execute(spec, cancelCh)
	finishedAt := nowMs()

	if err != nil {
		if storeErr := s.store.UpdateRunStatus(runID, store.StatusFailed, 0, finishedAt); storeErr != nil {
			return nil, fmt.Errorf("%w (additionally failed to record failure: %v)", err, storeErr)
		}
		return nil, err
	}

	status := store.StatusCompleted
	if result.Cancelled {
		status = store.StatusCancelled
	}
	if err := s.store.UpdateRunStatus(runID, status, 0, finishedAt); err != nil {
		return nil, err
	}
	if err := s.store.AttachMetrics(runID, &result.Metrics); err != nil {
		return nil, err
	}

	return result, nil
}

// Run prepares and executes a spec in one call.
func (s *Service) Run(spec *benchmark.Spec) (string, *benchmark.ExecutionResult, error) {
	runID, err := s.Prepare(spec)
	if err != nil {
		return "", nil, err
	}
	result, err := s.Execute(runID, spec)
	return runID, result, err
}

// Cancel broadcasts cancellation to the run's workers. It returns false when
// no run with that ID is active.
func (s *Service) Cancel(runID string) bool {
	return s.registry.Cancel(runID)
}

// Get loads a stored run.
func (s *Service) Get(runID string) (*store.RunDetail, error) {
	return s.store.GetRun(runID)
}

// List returns stored run summaries, newest first.
func (s *Service) List(limit int) ([]store.RunSummary, error) {
	return s.store.ListRuns(limit)
}

// Delete removes a stored run.
func (s *Service) Delete(runID string) error {
	return s.store.DeleteRun(runID)
}

// ExportPayload is a serialized run ready to be written out by the caller;
// the service itself performs no file I/O.
type ExportPayload struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"`
}

// Export serializes a stored run as a pretty-printed JSON payload.
func (s *Service) Export(runID string) (*ExportPayload, error) {
	detail, err := s.store.GetRun(runID)
	if err != nil {
		return nil, err
	}
	content, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize run export: %w", err)
	}
	return &ExportPayload{
		FileName: fmt.Sprintf("%s.json", runID),
		MimeType: "application/json",
		Content:  string(content),
	}, nil
}
