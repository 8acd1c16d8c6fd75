package cache

import (
	"sync"

	"github.com/geo-mart/ABPedSim/pkg/core"
)

// PedestrianCache caches pedestrian records as they are registered to avoid
// repeated backend lookups. Latency here is critical on the recording path.
type PedestrianCache struct {
	m           sync.Mutex
	Pedestrians map[string]core.Pedestrian
}

func NewPedestrianCache() *PedestrianCache {
	return &PedestrianCache{
		m:           sync.Mutex{},
		Pedestrians: make(map[string]core.Pedestrian),
	}
}

func (c *PedestrianCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.Pedestrians = make(map[string]core.Pedestrian)
}

func (c *PedestrianCache) Lock() {
	c.m.Lock()
}

func (c *PedestrianCache) Unlock() {
	c.m.Unlock()
}

func (c *PedestrianCache) Get(id string) (core.Pedestrian, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if p, ok := c.Pedestrians[id]; ok {
		return p, true
	}
	return core.Pedestrian{}, false
}

func (c *PedestrianCache) Add(p core.Pedestrian) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Pedestrians[p.PedID] = p
}

func (c *PedestrianCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.Pedestrians)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
