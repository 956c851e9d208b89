package route

import (
	"sync"

	"github.com/tripperbot/tripper/internal/domain"
)

// Cache memoizes oracle answers for the lifetime of the process. It is
// unbounded and never expires entries; restarts clear it. One instance is
// shared across all users — keys are address strings and hold no per-user
// data — so it is guarded for concurrent use.
//
// Lookups use the caller's raw addresses while stores use the oracle's
// resolved addresses (Route.Origin / Route.Destination). The two coincide
// once callers query with already-resolved addresses, which the engine does.
type Cache struct {
	mu     sync.RWMutex
	routes map[Query]Route
}

// NewCache returns an empty route cache.
func NewCache() *Cache {
	return &Cache{routes: make(map[Query]Route)}
}

// Get returns the cached route for the exact (origin, destination, mode)
// triple, if present.
func (c *Cache) Get(origin, destination string, mode domain.Mode) (Route, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.routes[Query{Origin: origin, Destination: destination, Mode: mode}]
	return r, ok
}

// Put stores a route keyed by its resolved addresses. Not-found sentinels
// are dropped so a transient oracle miss is re-queried next time.
func (c *Cache) Put(r Route) {
	if r.NotFound {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[Query{Origin: r.Origin, Destination: r.Destination, Mode: r.Mode}] = r
}

// Len returns the number of cached routes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.routes)
}
