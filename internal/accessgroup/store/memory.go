package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"stewardship/internal/accessgroup/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
)

// InMemoryStore keeps groups in a map with a lower-cased name index.
type InMemoryStore struct {
	mu     sync.RWMutex
	groups map[id.CustomGroupID]*models.Group
	names  map[string]id.CustomGroupID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		groups: make(map[id.CustomGroupID]*models.Group),
		names:  make(map[string]id.CustomGroupID),
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *InMemoryStore) Create(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	key := nameKey(group.Name)
	if _, ok := s.names[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.groups[group.ID] = group.Clone()
	s.names[key] = group.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, groupID id.CustomGroupID) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groupID, ok := s.names[nameKey(name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.groups[groupID].Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.groups[group.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	oldKey, newKey := nameKey(current.Name), nameKey(group.Name)
	if oldKey != newKey {
		if _, taken := s.names[newKey]; taken {
			return sentinel.ErrAlreadyUsed
		}
		delete(s.names, oldKey)
		s.names[newKey] = group.ID
	}
	s.groups[group.ID] = group.Clone()
	return nil
}

// List returns matching groups ordered by name.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Group
	for _, g := range s.groups {
		if filter.Matches(g) {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return nameKey(out[i].Name) < nameKey(out[j].Name) })
	return out, nil
}
