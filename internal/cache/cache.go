// Package cache holds the last successfully loaded list of one entity kind.
package cache

import (
	"slices"
	"sync"

	"github.com/vbonduro/clawmap/internal/domain"
)

// Generation tags one load. Only the most recently issued generation may
// commit.
type Generation uint64

// Observer is told whether each commit was applied or discarded as stale.
type Observer interface {
	ObserveCommit(name string, applied bool)
}

type Cache[T domain.Entity] struct {
	name string
	obs  Observer

	mu     sync.RWMutex
	issued Generation
	items  []T
	loaded bool
}

// New returns an empty cache. name labels metrics; obs may be nil.
func New[T domain.Entity](name string, obs Observer) *Cache[T] {
	return &Cache[T]{name: name, obs: obs}
}

// Begin issues the token for a new load. Any earlier token becomes stale.
func (c *Cache[T]) Begin() Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// Commit replaces the snapshot with items if gen is still the latest issued
// token, and reports whether it did.
func (c *Cache[T]) Commit(gen Generation, items []T) bool {
	c.mu.Lock()
	applied := gen == c.issued
	if applied {
		c.items = slices.Clone(items)
		c.loaded = true
	}
	c.mu.Unlock()

	if c.obs != nil {
		c.obs.ObserveCommit(c.name, applied)
	}
	return applied
}

// Snapshot returns a copy of the current items.
func (c *Cache[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *Cache[T]) Lookup(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.EntityID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Loaded reports whether any load has committed.
func (c *Cache[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
