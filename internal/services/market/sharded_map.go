package market

import (
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/route-executor/internal/domain"
)

const numShards = 16

// ShardedPoolMap is a sharded map for pools to reduce lock contention
type ShardedPoolMap struct {
	shards [numShards]poolShard
}

type poolShard struct {
	mu    sync.RWMutex
	pools map[solana.PublicKey]*domain.Pool
}

// NewShardedPoolMap creates a new sharded pool map
func NewShardedPoolMap() *ShardedPoolMap {
	m := &ShardedPoolMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].pools = make(map[solana.PublicKey]*domain.Pool)
	}
	return m
}

func (m *ShardedPoolMap) getShard(key solana.PublicKey) *poolShard {
	idx := key[0] % numShards
	return &m.shards[idx]
}

// Get returns a copy of the pool so callers never race with Update.
func (m *ShardedPoolMap) Get(key solana.PublicKey) (*domain.Pool, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	pool, ok := shard.pools[key]
	if ok {
		pool = pool.Clone()
	}
	shard.mu.RUnlock()
	return pool, ok
}

func (m *ShardedPoolMap) Set(key solana.PublicKey, pool *domain.Pool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	shard.pools[key] = pool
	shard.mu.Unlock()
}

func (m *ShardedPoolMap) Delete(key solana.PublicKey) {
	shard := m.getShard(key)
	shard.mu.Lock()
	delete(shard.pools, key)
	shard.mu.Unlock()
}

// Update runs fn on the stored pool under the shard's write lock. It returns
// false without calling fn when the key is absent.
func (m *ShardedPoolMap) Update(key solana.PublicKey, fn func(pool *domain.Pool) error) (bool, error) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	pool, ok := shard.pools[key]
	if !ok {
		return false, nil
	}
	return true, fn(pool)
}

// Len returns total count across all shards
func (m *ShardedPoolMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].pools)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// Range iterates over all pools (acquires locks per shard)
func (m *ShardedPoolMap) Range(f func(key solana.PublicKey, pool *domain.Pool) bool) {
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for k, v := range m.shards[i].pools {
			if !f(k, v) {
				m.shards[i].mu.RUnlock()
				return
			}
		}
		m.shards[i].mu.RUnlock()
	}
}

// GetAll returns copies of all pools
func (m *ShardedPoolMap) GetAll() []*domain.Pool {
	result := make([]*domain.Pool, 0, m.Len())
	m.Range(func(_ solana.PublicKey, pool *domain.Pool) bool {
		result = append(result, pool.Clone())
		return true
	})
	return result
}

// Snapshot copies every pool while holding all shard locks, so the copy is a
// consistent point-in-time view.
func (m *ShardedPoolMap) Snapshot() domain.PoolRegistry {
	m.lockAll()
	defer m.unlockAll()
	snap := make(domain.PoolRegistry)
	for i := 0; i < numShards; i++ {
		for k, v := range m.shards[i].pools {
			snap[k] = v.Clone()
		}
	}
	return snap
}

// Restore replaces the whole content with snap.
func (m *ShardedPoolMap) Restore(snap domain.PoolRegistry) {
	m.lockAll()
	defer m.unlockAll()
	for i := 0; i < numShards; i++ {
		m.shards[i].pools = make(map[solana.PublicKey]*domain.Pool)
	}
	for k, v := range snap {
		m.shards[k[0]%numShards].pools[k] = v.Clone()
	}
}

func (m *ShardedPoolMap) lockAll() {
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.Lock()
	}
}

func (m *ShardedPoolMap) unlockAll() {
	for i := numShards - 1; i >= 0; i-- {
		m.shards[i].mu.Unlock()
	}
}
