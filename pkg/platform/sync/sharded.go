// Package sync provides locking primitives for the in-memory stores.
package sync

import (
	"hash/fnv"
	"sync"
)

// DefaultShards is the shard count used when none is given.
const DefaultShards = 64

// ShardedMutex spreads per-key locking over a fixed set of mutexes so that
// mutations on different records rarely contend. Keys that hash to the same
// shard serialize, which is safe but slower.
type ShardedMutex struct {
	shards []sync.Mutex
}

// NewShardedMutex creates a ShardedMutex. Counts below one fall back to DefaultShards.
func NewShardedMutex(shards ...int) *ShardedMutex {
	n := DefaultShards
	if len(shards) > 0 && shards[0] > 0 {
		n = shards[0]
	}
	return &ShardedMutex{shards: make([]sync.Mutex, n)}
}

// Lock acquires the shard owning key. The empty key maps to shard 0.
func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

// Unlock releases the shard owning key.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// With runs fn while holding the shard for key.
func (m *ShardedMutex) With(key string, fn func()) {
	m.Lock(key)
	defer m.Unlock(key)
	fn()
}

func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key)) //nolint:errcheck // hash writes never fail
	return int(h.Sum32() % uint32(len(m.shards)))
}
