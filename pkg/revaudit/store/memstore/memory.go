package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/record"
	"github.com/cognicore/revaudit/pkg/revaudit/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]store.Run
	records map[string]map[int]record.EnrichedRecord // run → position → record
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:    make(map[string]store.Run),
		records: make(map[string]map[int]record.EnrichedRecord),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun inserts or updates a run.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: %w: empty id", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[r.ID] = r
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	return r, ok, nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest store.Run
	found := false
	for _, r := range s.runs {
		if !found || r.StartedAt.After(latest.StartedAt) ||
			(r.StartedAt.Equal(latest.StartedAt) && r.ID > latest.ID) {
			latest = r
			found = true
		}
	}
	return latest, found, nil
}

// SaveRecords stores records, replacing any with the same position.
func (s *Store) SaveRecords(ctx context.Context, runID string, records []record.EnrichedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("save records: run %s: %w", runID, internalerr.ErrNotFound)
	}
	byPos := s.records[runID]
	if byPos == nil {
		byPos = make(map[int]record.EnrichedRecord, len(records))
		s.records[runID] = byPos
	}
	for _, r := range records {
		byPos[r.Position] = r
	}
	return nil
}

// CountRecords returns how many records are stored for a run.
func (s *Store) CountRecords(ctx context.Context, runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records[runID]), nil
}

// ListSuspects returns suspects ordered by confidence, then position.
func (s *Store) ListSuspects(ctx context.Context, runID string, limit int) ([]record.EnrichedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.EnrichedRecord
	for _, r := range s.records[runID] {
		if r.IsSuspect {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Position < out[j].Position
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
