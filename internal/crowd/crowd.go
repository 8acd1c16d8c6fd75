// Package crowd groups pedestrians that share a force model, an integrator
// and a desired velocity distribution, and advances them tick by tick.
package crowd

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/integrator"
	"github.com/geo-mart/ABPedSim/internal/ped"
	"github.com/geo-mart/ABPedSim/internal/wayfinding"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Crowd is a set of pedestrians advanced together. The force model and the
// integrator can be swapped between ticks; a tick always runs with one
// consistent pair.
type Crowd struct {
	mu          sync.RWMutex
	name        string
	pedestrians []*ped.Pedestrian
	model       force.Model
	integ       integrator.Integrator
	sampler     *sampler
	workers     int
	logger      *slog.Logger
}

// Option configures a crowd at construction time.
type Option func(*Crowd)

// WithWorkers sets the tick worker count. Zero or negative means
// runtime.GOMAXPROCS; one forces sequential ticks.
func WithWorkers(n int) Option {
	return func(c *Crowd) { c.workers = n }
}

// WithSeed fixes the velocity sampling seed, for reproducible runs.
func WithSeed(seed uint64) Option {
	return func(c *Crowd) { c.sampler = newSampler(c.sampler.dist, seed) }
}

// WithLogger sets the crowd logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crowd) { c.logger = logger }
}

// New creates an empty crowd.
func New(name string, m force.Model, in integrator.Integrator, dist VelocityDistribution, opts ...Option) *Crowd {
	c := &Crowd{
		name:    name,
		model:   m,
		integ:   in,
		sampler: newSampler(dist, 1),
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers <= 0 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Name returns the crowd name.
func (c *Crowd) Name() string { return c.name }

// Workers returns the tick worker count.
func (c *Crowd) Workers() int { return c.workers }

// Add creates a pedestrian at the given position with freshly sampled
// desired velocities and adds it to the crowd.
func (c *Crowd) Add(id string, position vec.V, wf wayfinding.Model) *ped.Pedestrian {
	c.mu.Lock()
	defer c.mu.Unlock()
	normal, maximum := c.sampler.sample()
	p := ped.New(id, position, normal, maximum, wf)
	c.pedestrians = append(c.pedestrians, p)
	return p
}

// Pedestrians returns a copy of the pedestrian list.
func (c *Crowd) Pedestrians() []*ped.Pedestrian {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*ped.Pedestrian, len(c.pedestrians))
	copy(out, c.pedestrians)
	return out
}

// Size returns the number of pedestrians.
func (c *Crowd) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pedestrians)
}

// Snapshots captures the current state of every pedestrian.
func (c *Crowd) Snapshots() []ped.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ped.Snapshot, len(c.pedestrians))
	for i, p := range c.pedestrians {
		out[i] = p.Snapshot()
	}
	return out
}

// Model returns the active force model.
func (c *Crowd) Model() force.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel swaps the force model. The swap takes effect on the next tick.
func (c *Crowd) SetModel(m force.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = m
}

// Integrator returns the active integrator.
func (c *Crowd) Integrator() integrator.Integrator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.integ
}

// SetIntegrator swaps the integrator. The swap takes effect on the next
// tick.
func (c *Crowd) SetIntegrator(in integrator.Integrator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.integ = in
}

// VelocityDistribution returns the active sampling parameters.
func (c *Crowd) VelocityDistribution() VelocityDistribution {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sampler.dist
}

// SetVelocityDistribution replaces the sampling parameters and re-samples
// the desired velocities of every pedestrian.
func (c *Crowd) SetVelocityDistribution(dist VelocityDistribution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampler = newSampler(dist, c.sampler.seed)
	for _, p := range c.pedestrians {
		p.SetDesiredVelocities(c.sampler.sample())
	}
}

// Tick advances every pedestrian by dt seconds against the given snapshot
// set, which must have been taken before any pedestrian moved. Pedestrians
// are distributed over the worker pool; each moves exactly once and only
// reads the shared snapshots, so the result does not depend on scheduling.
// The returned error joins the failures of individual moves.
func (c *Crowd) Tick(timeMs int64, dt float64, snapshots []ped.Snapshot, boundaries []*geo.Boundary) error {
	c.mu.RLock()
	peds := c.pedestrians
	m := c.model
	in := c.integ
	workers := c.workers
	c.mu.RUnlock()

	if workers > len(peds) {
		workers = len(peds)
	}
	if workers <= 1 {
		var errs []error
		for _, p := range peds {
			if err := moveOne(in, timeMs, dt, p, snapshots, boundaries, m); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	jobs := make(chan *ped.Pedestrian)
	results := make(chan error, len(peds))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if err := moveOne(in, timeMs, dt, p, snapshots, boundaries, m); err != nil {
					results <- err
				}
			}
		}()
	}
	for _, p := range peds {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
	close(results)

	var errs []error
	for err := range results {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// moveOne advances a single pedestrian and records its position. A panic in
// the force or wayfinding code is surfaced as that pedestrian's error
// instead of taking the whole tick down.
func moveOne(in integrator.Integrator, timeMs int64, dt float64, p *ped.Pedestrian, snapshots []ped.Snapshot, boundaries []*geo.Boundary, m force.Model) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pedestrian %s: move failed: %v", p.ID(), r)
		}
	}()
	p.UpdateTarget(timeMs)
	in.Move(timeMs, dt, p, snapshots, boundaries, m)
	p.RecordPosition(timeMs)
	return nil
}
