package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
)

const BackendMemory = "memory"

type memoryEntry struct {
	rootID  int64
	mapping labels.Mapping
}

// MemoryCache keeps resolved label mappings in a size-bounded LRU with a TTL.
// The root index may hold ids whose entry already expired; they are dropped
// on the next invalidation of that root.
type MemoryCache struct {
	mu          sync.Mutex
	entries     *lru.LRU[uint, memoryEntry]
	roots       map[int64]map[uint]struct{}
	generations map[int64]uint64
	size        int
	indexed     int
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 10000
	}
	return &MemoryCache{
		entries:     lru.NewLRU[uint, memoryEntry](size, nil, ttl),
		roots:       make(map[int64]map[uint]struct{}),
		generations: make(map[int64]uint64),
		size:        size,
	}
}

func (c *MemoryCache) Backend() string {
	return BackendMemory
}

func (c *MemoryCache) Get(_ context.Context, userID uint) (labels.Mapping, bool, error) {
	e, ok := c.entries.Get(userID)
	if !ok {
		return nil, false, nil
	}
	return e.mapping.Clone(), true, nil
}

func (c *MemoryCache) Generation(_ context.Context, rootID int64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[rootID], nil
}

// Set is a no-op when rootID was invalidated since generation was read.
func (c *MemoryCache) Set(_ context.Context, rootID int64, generation uint64, userID uint, m labels.Mapping) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rootID != 0 && c.generations[rootID] != generation {
		return nil
	}

	if prev, ok := c.entries.Peek(userID); ok && prev.rootID != rootID {
		c.unindex(prev.rootID, userID)
	}
	c.entries.Add(userID, memoryEntry{rootID: rootID, mapping: m.Clone()})
	if rootID == 0 {
		return nil
	}
	users, ok := c.roots[rootID]
	if !ok {
		users = make(map[uint]struct{})
		c.roots[rootID] = users
	}
	if _, ok := users[userID]; !ok {
		users[userID] = struct{}{}
		c.indexed++
	}
	if c.indexed > 2*c.size {
		c.compact()
	}
	return nil
}

func (c *MemoryCache) InvalidateRoot(_ context.Context, rootID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[rootID]++
	for userID := range c.roots[rootID] {
		if e, ok := c.entries.Peek(userID); ok && e.rootID == rootID {
			c.entries.Remove(userID)
		}
	}
	c.indexed -= len(c.roots[rootID])
	delete(c.roots, rootID)
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

func (c *MemoryCache) unindex(rootID int64, userID uint) {
	users, ok := c.roots[rootID]
	if !ok {
		return
	}
	if _, ok := users[userID]; ok {
		delete(users, userID)
		c.indexed--
	}
	if len(users) == 0 {
		delete(c.roots, rootID)
	}
}

// compact rebuilds the root index from the live entries.
func (c *MemoryCache) compact() {
	c.roots = make(map[int64]map[uint]struct{})
	c.indexed = 0
	for _, userID := range c.entries.Keys() {
		e, ok := c.entries.Peek(userID)
		if !ok || e.rootID == 0 {
			continue
		}
		users, ok := c.roots[e.rootID]
		if !ok {
			users = make(map[uint]struct{})
			c.roots[e.rootID] = users
		}
		users[userID] = struct{}{}
		c.indexed++
	}
}
