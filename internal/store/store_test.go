package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/surgehttp/surge/internal/benchmark"
	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

func sampleDetail(runID string, createdAt int64) *RunDetail {
	return &RunDetail{
		Run: RunSummary{
			RunID:     runID,
			SpecID:    "spec-1",
			RequestID: "req-1",
			Status:    StatusQueued,
			CreatedAt: createdAt,
			SpecHash:  "abc123",
		},
		Spec: benchmark.Spec{
			ID:   "spec-1",
			Name: "checkout",
			Target: benchmark.Target{
				RequestSnapshot: benchmark.RequestSnapshot{
					Method: "GET",
					URL:    "http://localhost:8080/health",
				},
			},
			Load: benchmark.LoadConfig{
				Mode:        benchmark.LoadFixedIterations,
				Iterations:  10,
				Concurrency: 2,
			},
			Timing:  benchmark.TimingConfig{TimeoutMs: 5000},
			Logging: benchmark.LoggingConfig{SampleErrorsTopK: 10, SaveBodies: benchmark.SaveBodiesNone},
		},
		Environment: benchmark.EnvironmentFingerprint{
			OS:         "linux",
			Arch:       "amd64",
			CPUCount:   8,
			AppVersion: "0.1.0",
		},
	}
}

func sampleMetrics() *metrics.AggregatedMetrics {
	aggregated := metrics.Aggregate([]metrics.Sample{
		{TimestampMs: 1000, LatencyMs: 12.5, StatusCode: 200, Success: true, BytesIn: 120, BytesOut: 40},
		{TimestampMs: 1100, LatencyMs: 30, StatusCode: 503, ErrorType: metrics.ErrorHTTP5xx, ErrorMsg: "HTTP 503", BytesIn: 80, BytesOut: 40},
	}, 1000, 2000, 10)
	return &aggregated
}

// runStoreSuite exercises the full RunStore contract against any
// implementation.
func runStoreSuite(t *testing.T, s RunStore) {
	t.Helper()

	if err := s.CreateRun(sampleDetail("run-1", 100)); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := s.CreateRun(sampleDetail("run-2", 200)); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	detail, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if detail.Run.Status != StatusQueued {
		t.Errorf("Status = %q, want queued", detail.Run.Status)
	}
	if detail.Spec.Name != "checkout" || detail.Spec.Load.Iterations != 10 {
		t.Errorf("stored spec mangled: %+v", detail.Spec)
	}
	if detail.Environment.OS != "linux" || detail.Environment.CPUCount != 8 {
		t.Errorf("stored fingerprint mangled: %+v", detail.Environment)
	}
	if detail.Metrics != nil {
		t.Error("fresh run already has metrics")
	}

	if err := s.UpdateRunStatus("run-1", StatusRunning, 150, 0); err != nil {
		t.Fatalf("UpdateRunStatus() error = %v", err)
	}
	if err := s.UpdateRunStatus("run-1", StatusCompleted, 0, 900); err != nil {
		t.Fatalf("UpdateRunStatus() error = %v", err)
	}

	detail, err = s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if detail.Run.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", detail.Run.Status)
	}
	// The zero startedAt in the second update must not erase the first.
	if detail.Run.StartedAt != 150 || detail.Run.FinishedAt != 900 {
		t.Errorf("StartedAt/FinishedAt = %d/%d, want 150/900", detail.Run.StartedAt, detail.Run.FinishedAt)
	}

	if err := s.AttachMetrics("run-1", sampleMetrics()); err != nil {
		t.Fatalf("AttachMetrics() error = %v", err)
	}
	detail, err = s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if detail.Metrics == nil {
		t.Fatal("metrics not attached")
	}
	if detail.Metrics.Summary.TotalRequests != 2 || detail.Metrics.Summary.ErrorCount != 1 {
		t.Errorf("metrics mangled: %+v", detail.Metrics.Summary)
	}
	if len(detail.Metrics.TopErrors) != 1 {
		t.Errorf("TopErrors = %+v, want one entry", detail.Metrics.TopErrors)
	}

	summaries, err := s.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("ListRuns() length = %d, want 2", len(summaries))
	}
	if summaries[0].RunID != "run-2" || summaries[1].RunID != "run-1" {
		t.Errorf("ListRuns() order = [%s %s], want newest first", summaries[0].RunID, summaries[1].RunID)
	}

	limited, err := s.ListRuns(1)
	if err != nil {
		t.Fatalf("ListRuns(1) error = %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "run-2" {
		t.Errorf("ListRuns(1) = %+v, want only run-2", limited)
	}

	if err := s.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}
	if _, err := s.GetRun("run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun(deleted) error = %v, want ErrNotFound", err)
	}

	if _, err := s.GetRun("no-such-run"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun(unknown) error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateRunStatus("no-such-run", StatusFailed, 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateRunStatus(unknown) error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteRun("no-such-run"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteRun(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	runStoreSuite(t, s)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surge.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()
	runStoreSuite(t, s)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surge.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s.CreateRun(sampleDetail("run-1", 100)); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := s.AttachMetrics("run-1", sampleMetrics()); err != nil {
		t.Fatalf("AttachMetrics() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore(reopen) error = %v", err)
	}
	defer reopened.Close()

	detail, err := reopened.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if detail.Spec.Name != "checkout" {
		t.Errorf("spec lost across reopen: %+v", detail.Spec)
	}
	if detail.Metrics == nil || detail.Metrics.Summary.TotalRequests != 2 {
		t.Error("metrics lost across reopen")
	}
}

func TestMemoryStore_GetReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateRun(sampleDetail("run-1", 100)); err != nil {
		t.Fatal(err)
	}

	first, _ := s.GetRun("run-1")
	first.Run.Status = StatusFailed

	second, _ := s.GetRun("run-1")
	if second.Run.Status != StatusQueued {
		t.Error("mutating a returned detail leaked into the store")
	}
}
