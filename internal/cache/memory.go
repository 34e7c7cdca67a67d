package cache

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Snapshots are kept per source ordered
// by last_updated, matching the Postgres store's ordering; concurrent
// writers are serialized and the last write wins.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]RateRecord // ordered by LastUpdated, newest last
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]RateRecord)}
}

// Get returns the newest snapshot for a source.
func (s *MemoryStore) Get(_ context.Context, sourceID string) (RateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.records[sourceID]
	if len(history) == 0 {
		return RateRecord{}, ErrNoRecord
	}
	return history[len(history)-1], nil
}

// Put inserts a snapshot for the record's source, keeping the history
// sorted by LastUpdated even when snapshots arrive out of order.
func (s *MemoryStore) Put(_ context.Context, rec RateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.records[rec.SourceID], rec)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].LastUpdated.Before(history[j].LastUpdated)
	})
	s.records[rec.SourceID] = history
	return nil
}

// History returns up to limit snapshots, newest first. A non-positive
// limit returns everything.
func (s *MemoryStore) History(_ context.Context, sourceID string, limit int) ([]RateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.records[sourceID]
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}

	out := make([]RateRecord, 0, limit)
	for i := len(history) - 1; i >= len(history)-limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

// Trim drops all but the newest keep snapshots for a source.
func (s *MemoryStore) Trim(_ context.Context, sourceID string, keep int) error {
	if keep <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.records[sourceID]
	if len(history) <= keep {
		return nil
	}
	s.records[sourceID] = append([]RateRecord(nil), history[len(history)-keep:]...)
	return nil
}

var _ Store = (*MemoryStore)(nil)
