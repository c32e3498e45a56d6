package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"stewardship/internal/directory/models"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/sentinel"
	"stewardship/pkg/platform/sets"
)

// InMemoryStore keeps the directory in maps. Group membership is stored on
// the group; actor group lists are derived on read.
type InMemoryStore struct {
	mu     sync.RWMutex
	actors map[id.ActorID]*models.Actor
	groups map[id.GroupID]*models.Group
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		actors: make(map[id.ActorID]*models.Actor),
		groups: make(map[id.GroupID]*models.Group),
	}
}

func (s *InMemoryStore) CreateActor(_ context.Context, actor *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[actor.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *actor
	cp.Groups = nil
	s.actors[actor.ID] = &cp
	return nil
}

func (s *InMemoryStore) UpdateActor(_ context.Context, actor *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[actor.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *actor
	cp.Groups = nil
	s.actors[actor.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindActor(_ context.Context, actorID id.ActorID) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.withGroups(actor), nil
}

func (s *InMemoryStore) ListActors(_ context.Context) ([]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Actor, 0, len(s.actors))
	for _, a := range s.actors {
		out = append(out, s.withGroups(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *group
	cp.Members = sets.Dedupe(group.Members)
	s.groups[group.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindGroup(_ context.Context, groupID id.GroupID) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneGroup(g), nil
}

func (s *InMemoryStore) ListGroups(_ context.Context) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, cloneGroup(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) AddMember(_ context.Context, groupID id.GroupID, actorID id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := s.actors[actorID]; !ok {
		return sentinel.ErrNotFound
	}
	g.Members, _ = sets.Add(g.Members, actorID)
	return nil
}

func (s *InMemoryStore) RemoveMember(_ context.Context, groupID id.GroupID, actorID id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return sentinel.ErrNotFound
	}
	g.Members, _ = sets.Remove(g.Members, actorID)
	return nil
}

func (s *InMemoryStore) withGroups(a *models.Actor) *models.Actor {
	cp := *a
	cp.Groups = nil
	for gid, g := range s.groups {
		if slices.Contains(g.Members, a.ID) {
			cp.Groups = append(cp.Groups, gid)
		}
	}
	sort.Slice(cp.Groups, func(i, j int) bool { return cp.Groups[i].String() < cp.Groups[j].String() })
	return &cp
}

func cloneGroup(g *models.Group) *models.Group {
	cp := *g
	cp.Members = slices.Clone(g.Members)
	return &cp
}
