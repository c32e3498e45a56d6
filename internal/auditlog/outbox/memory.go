package outbox

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is the outbox used when no database is configured.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[uuid.UUID]*Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *InMemoryStore) FetchUnprocessed(_ context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []*Entry
	for _, e := range s.entries {
		if e.IsPending() {
			cp := *e
			pending = append(pending, &cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *InMemoryStore) MarkProcessed(_ context.Context, id uuid.UUID, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || !e.IsPending() {
		return fmt.Errorf("outbox entry not found or already processed: %s", id)
	}
	e.ProcessedAt = &processedAt
	return nil
}

func (s *InMemoryStore) CountPending(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.entries {
		if e.IsPending() {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.entries {
		if e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}
