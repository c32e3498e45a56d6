package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	id "stewardship/pkg/domain"
)

type entry struct {
	actors    []id.ActorID
	expiresAt time.Time
}

// InMemoryCache is a process-local Cache with TTL eviction on read.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[id.RecordID]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewInMemory(ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[id.RecordID]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryCache) Get(_ context.Context, recordID id.RecordID) ([]id.ActorID, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[recordID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, recordID)
		c.mu.Unlock()
		return nil, false, nil
	}
	return slices.Clone(e.actors), true, nil
}

func (c *InMemoryCache) Set(_ context.Context, recordID id.RecordID, actors []id.ActorID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[recordID] = entry{
		actors:    slices.Clone(actors),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *InMemoryCache) Invalidate(_ context.Context, recordID id.RecordID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, recordID)
	return nil
}

func (c *InMemoryCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
