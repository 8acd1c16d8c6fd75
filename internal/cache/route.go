package cache

import (
	"sync"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// RouteCache maps named waypoints to their positions for the current scene
type RouteCache struct {
	mu        sync.RWMutex
	waypoints map[string]vec.V
}

// NewRouteCache creates a new RouteCache
func NewRouteCache() *RouteCache {
	return &RouteCache{
		waypoints: make(map[string]vec.V),
	}
}

// Get retrieves a waypoint position by name
func (c *RouteCache) Get(name string) (vec.V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.waypoints[name]
	return p, ok
}

// Set stores a waypoint position by name
func (c *RouteCache) Set(name string, p vec.V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waypoints[name] = p
}

// Delete removes a waypoint by name
func (c *RouteCache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.waypoints, name)
}

// Reset clears all waypoints from the cache
func (c *RouteCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waypoints = make(map[string]vec.V)
}
