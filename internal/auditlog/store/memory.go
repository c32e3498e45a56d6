// Package store persists audit log entries. Entries are append-only: there
// is no update, and deletion happens only through retention.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"stewardship/internal/auditlog/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*models.Entry
	byID    map[id.EntryID]*models.Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.EntryID]*models.Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[entry.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *entry
	s.entries = append(s.entries, &cp)
	s.byID[entry.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, entryID id.EntryID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// List returns matching entries newest first.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if !filter.Matches(e) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context, filter models.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	for _, e := range s.entries {
		if filter.Matches(e) {
			n++
		}
	}
	return n, nil
}

// DeleteBefore removes entries of kind older than before.
func (s *InMemoryStore) DeleteBefore(_ context.Context, kind models.Kind, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	var removed int64
	for _, e := range s.entries {
		if e.Kind == kind && e.Timestamp.Before(before) {
			delete(s.byID, e.ID)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed, nil
}
