package store

import (
	"sort"
	"sync"

	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

// MemoryStore is the in-memory RunStore, used when no database path is
// configured and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*RunDetail
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*RunDetail)}
}

func (s *MemoryStore) CreateRun(detail *RunDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *detail
	s.runs[detail.Run.RunID] = &clone
	return nil
}

func (s *MemoryStore) UpdateRunStatus(runID string, status RunStatus, startedAt, finishedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	detail, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}
	detail.Run.Status = status
	if startedAt != 0 {
		detail.Run.StartedAt = startedAt
	}
	if finishedAt != 0 {
		detail.Run.FinishedAt = finishedAt
	}
	return nil
}

func (s *MemoryStore) AttachMetrics(runID string, aggregated *metrics.AggregatedMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	detail, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}
	clone := *aggregated
	detail.Metrics = &clone
	return nil
}

func (s *MemoryStore) GetRun(runID string) (*RunDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	detail, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *detail
	return &clone, nil
}

func (s *MemoryStore) ListRuns(limit int) ([]RunSummary, error) {
	s.mu.RLock()
	summaries := make([]RunSummary, 0, len(s.runs))
	for _, detail := range s.runs {
		summaries = append(summaries, detail.Run)
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt != summaries[j].CreatedAt {
			return summaries[i].CreatedAt > summaries[j].CreatedAt
		}
		return summaries[i].RunID > summaries[j].RunID
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (s *MemoryStore) DeleteRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return ErrNotFound
	}
	delete(s.runs, runID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
