package store

import (
	"context"
	"sort"
	"sync"

	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map. Callers serialize writers per record
// through tx.ShardedRunner; the store lock only guards the map.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]*models.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RecordID]*models.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// FindForUpdate is FindByID; the sharded runner already holds the record lock.
func (s *InMemoryStore) FindForUpdate(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	return s.FindByID(ctx, recordID)
}

func (s *InMemoryStore) Update(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[recordID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, recordID)
	return nil
}

// List returns matching records ordered by creation time.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, r := range s.records {
		if filter.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
