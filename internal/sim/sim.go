// Package sim orchestrates crowds, boundaries and the clock into a running
// simulation. A tick snapshots every pedestrian across all crowds first and
// then moves them against that frozen view, so the outcome is independent
// of crowd and worker ordering.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/internal/crowd"
	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/grid"
	"github.com/geo-mart/ABPedSim/internal/integrator"
	"github.com/geo-mart/ABPedSim/internal/ped"
)

// Validation errors. Each names the precondition a simulation setup broke.
var (
	ErrNoPedestrians      = errors.New("no pedestrians loaded")
	ErrNoBoundaries       = errors.New("no boundaries loaded")
	ErrDuplicateID        = errors.New("duplicate pedestrian id")
	ErrCoincidentStart    = errors.New("coincident initial positions")
	ErrWaypointNotVisible = errors.New("waypoint not visible")
	ErrEmptyRoute         = errors.New("pedestrian has no route")
)

// Config holds the orchestration settings.
type Config struct {
	// RefreshIntervalMs is the minimum wall time between ticks of the
	// real-time loop.
	RefreshIntervalMs int64
	// FastForwardFactor scales simulated time against wall time.
	FastForwardFactor float64
	// GridCellSize and GridUpdateIntervalMs configure the density grid.
	// A zero cell size disables the grid.
	GridCellSize         float64
	GridUpdateIntervalMs int64
}

// DefaultConfig returns a real-time configuration with the density grid
// enabled.
func DefaultConfig() Config {
	return Config{
		RefreshIntervalMs:    50,
		FastForwardFactor:    1,
		GridCellSize:         grid.DefaultCellSize,
		GridUpdateIntervalMs: grid.DefaultUpdateIntervalMs,
	}
}

// Simulator owns the crowds and the obstacle set and advances them.
type Simulator struct {
	mu         sync.RWMutex
	cfg        Config
	crowds     []*crowd.Crowd
	boundaries []*geo.Boundary
	obstacles  geom.Geometry
	clock      *FastForwardClock
	grid       *grid.Grid
	logger     *slog.Logger
	metrics    *metrics

	validated bool
	lastSimMs int64

	tickCount     int64
	totalTickWall time.Duration
	totalSimMs    float64
}

// New creates a simulator over the given obstacle set.
func New(boundaries []*geo.Boundary, cfg Config, logger *slog.Logger) (*Simulator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RefreshIntervalMs <= 0 {
		cfg.RefreshIntervalMs = DefaultConfig().RefreshIntervalMs
	}
	obstacles, err := geo.UnionAll(geo.Geometries(boundaries))
	if err != nil {
		return nil, fmt.Errorf("failed to union boundaries: %w", err)
	}
	s := &Simulator{
		cfg:        cfg,
		boundaries: boundaries,
		obstacles:  obstacles,
		clock:      NewFastForwardClock(cfg.FastForwardFactor),
		logger:     logger,
	}
	sm, err := newMetrics(s)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulator metrics: %w", err)
	}
	s.metrics = sm
	return s, nil
}

// AddCrowd registers a crowd. Adding a crowd invalidates a previous
// validation pass.
func (s *Simulator) AddCrowd(c *crowd.Crowd) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crowds = append(s.crowds, c)
	s.validated = false
}

// Crowds returns the registered crowds.
func (s *Simulator) Crowds() []*crowd.Crowd {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*crowd.Crowd, len(s.crowds))
	copy(out, s.crowds)
	return out
}

// Boundaries returns the obstacle set.
func (s *Simulator) Boundaries() []*geo.Boundary {
	return s.boundaries
}

// Obstacles returns the unioned obstacle geometry used for route building.
func (s *Simulator) Obstacles() geom.Geometry {
	return s.obstacles
}

// Clock returns the simulation clock.
func (s *Simulator) Clock() *FastForwardClock {
	return s.clock
}

// Grid returns the density grid, nil when disabled or not yet validated.
func (s *Simulator) Grid() *grid.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid
}

// Validate checks the loaded scenario and prepares the density grid. It
// must pass before Run; Tick refuses to advance an unvalidated simulation.
func (s *Simulator) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.boundaries) == 0 {
		return ErrNoBoundaries
	}

	var peds []*ped.Pedestrian
	for _, c := range s.crowds {
		peds = append(peds, c.Pedestrians()...)
	}
	if len(peds) == 0 {
		return ErrNoPedestrians
	}

	seen := make(map[string]struct{}, len(peds))
	for _, p := range peds {
		if _, dup := seen[p.ID()]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, p.ID())
		}
		seen[p.ID()] = struct{}{}
	}

	for i, a := range peds {
		for _, b := range peds[i+1:] {
			if a.Position() == b.Position() {
				return fmt.Errorf("%w: %q and %q both start at %s", ErrCoincidentStart, a.ID(), b.ID(), a.Position())
			}
		}
	}

	for _, p := range peds {
		route := p.Wayfinding().Route()
		if len(route) == 0 {
			return fmt.Errorf("%w: %q", ErrEmptyRoute, p.ID())
		}
		if !geo.Visible(p.Position(), route[0].Position(), s.boundaries) {
			return fmt.Errorf("%w: pedestrian %q cannot see its first waypoint %s",
				ErrWaypointNotVisible, p.ID(), route[0].Position())
		}
		for i := 0; i < len(route)-1; i++ {
			if !geo.Visible(route[i].Position(), route[i+1].Position(), s.boundaries) {
				return fmt.Errorf("%w: waypoint %s cannot see its successor %s on the route of %q",
					ErrWaypointNotVisible, route[i].Position(), route[i+1].Position(), p.ID())
			}
		}
	}

	if s.cfg.GridCellSize > 0 {
		bounds := s.sceneBounds(peds)
		g, err := grid.New(bounds, s.cfg.GridCellSize, s.cfg.GridUpdateIntervalMs)
		if err != nil {
			return fmt.Errorf("failed to build density grid: %w", err)
		}
		s.grid = g
	}

	s.validated = true
	return nil
}

// sceneBounds covers all boundaries, start positions and waypoints, padded
// by one grid cell.
func (s *Simulator) sceneBounds(peds []*ped.Pedestrian) geo.Rect {
	var bounds geo.Rect
	first := true
	include := func(r geo.Rect) {
		if first {
			bounds = r
			first = false
			return
		}
		bounds = bounds.ExpandToInclude(r)
	}
	for _, b := range s.boundaries {
		include(b.BBox())
	}
	for _, p := range peds {
		include(geo.RectAround(p.Position(), p.Position()))
		for _, wp := range p.Wayfinding().Route() {
			include(geo.RectAround(wp.Position(), wp.Position()))
		}
	}
	pad := s.cfg.GridCellSize
	bounds.MinX -= pad
	bounds.MinY -= pad
	bounds.MaxX += pad
	bounds.MaxY += pad
	return bounds
}

// Snapshots captures every pedestrian across all crowds.
func (s *Simulator) Snapshots() []ped.Snapshot {
	s.mu.RLock()
	crowds := s.crowds
	s.mu.RUnlock()
	var snapshots []ped.Snapshot
	for _, c := range crowds {
		snapshots = append(snapshots, c.Snapshots()...)
	}
	return snapshots
}

// Tick advances the whole simulation to the given simulated time. dt is
// the step in seconds. The caller controls the tick cadence; Run derives
// it from the clock.
func (s *Simulator) Tick(timeMs int64, dt float64) error {
	s.mu.RLock()
	if !s.validated {
		s.mu.RUnlock()
		return errors.New("simulation not validated")
	}
	crowds := s.crowds
	boundaries := s.boundaries
	g := s.grid
	s.mu.RUnlock()

	start := time.Now()
	snapshots := make([]ped.Snapshot, 0, 64)
	for _, c := range crowds {
		snapshots = append(snapshots, c.Snapshots()...)
	}

	var errs []error
	for _, c := range crowds {
		if err := c.Tick(timeMs, dt, snapshots, boundaries); err != nil {
			errs = append(errs, fmt.Errorf("crowd %s: %w", c.Name(), err))
		}
	}

	if g != nil {
		moved := make([]ped.Snapshot, 0, len(snapshots))
		for _, c := range crowds {
			moved = append(moved, c.Snapshots()...)
		}
		g.Update(timeMs, moved)
	}

	wall := time.Since(start)
	s.mu.Lock()
	s.lastSimMs = timeMs
	s.tickCount++
	s.totalTickWall += wall
	s.totalSimMs += dt * 1000
	s.mu.Unlock()
	s.metrics.recordTick(float64(wall) / float64(time.Millisecond))

	return errors.Join(errs...)
}

// Step advances by dt seconds of simulated time without consulting the
// clock, used for headless and fast-forwarded runs.
func (s *Simulator) Step(dt float64) error {
	s.mu.RLock()
	next := s.lastSimMs + int64(dt*1000)
	s.mu.RUnlock()
	return s.Tick(next, dt)
}

// Finished reports whether every pedestrian has visited its whole route.
func (s *Simulator) Finished() bool {
	s.mu.RLock()
	crowds := s.crowds
	s.mu.RUnlock()
	for _, c := range crowds {
		for _, p := range c.Pedestrians() {
			if p.Wayfinding().Destination() != nil {
				return false
			}
		}
	}
	return true
}

// Run drives the simulation in wall time until the context is canceled or
// every route is finished. The refresh interval throttles the tick rate;
// the fast forward clock stretches or compresses the simulated time each
// tick covers.
func (s *Simulator) Run(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	ticker := time.NewTicker(time.Duration(s.cfg.RefreshIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	s.clock.AdvanceNow()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			simNow := s.clock.AdvanceNow()
			s.mu.RLock()
			last := s.lastSimMs
			s.mu.RUnlock()
			dt := float64(simNow-last) / 1000
			if dt <= 0 {
				continue
			}
			if err := s.Tick(simNow, dt); err != nil {
				s.logger.Error("tick failed", "time_ms", simNow, "error", err)
			}
			if s.Finished() {
				s.logger.Info("all routes finished", "time_ms", simNow)
				return nil
			}
		}
	}
}

// AverageTickDuration returns the mean wall time a tick took.
func (s *Simulator) AverageTickDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tickCount == 0 {
		return 0
	}
	return s.totalTickWall / time.Duration(s.tickCount)
}

// AverageUpdateIntervalMs returns the mean simulated time a tick covered.
func (s *Simulator) AverageUpdateIntervalMs() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tickCount == 0 {
		return 0
	}
	return s.totalSimMs / float64(s.tickCount)
}

// TickCount returns the number of executed ticks.
func (s *Simulator) TickCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickCount
}

// SetIntegrator swaps the integrator of every crowd by name.
func (s *Simulator) SetIntegrator(name string) error {
	in, err := integrator.ByName(name)
	if err != nil {
		return err
	}
	for _, c := range s.Crowds() {
		c.SetIntegrator(in)
	}
	s.logger.Info("integrator swapped", "integrator", in.Name())
	return nil
}

// SetForceModel swaps the force model of every crowd by name.
func (s *Simulator) SetForceModel(name string) error {
	m, err := force.ByName(name)
	if err != nil {
		return err
	}
	for _, c := range s.Crowds() {
		c.SetModel(m)
	}
	s.logger.Info("force model swapped", "model", name)
	return nil
}

// SetVelocityDistribution re-samples every crowd from the new parameters.
func (s *Simulator) SetVelocityDistribution(dist crowd.VelocityDistribution) {
	for _, c := range s.Crowds() {
		c.SetVelocityDistribution(dist)
	}
	s.logger.Info("desired velocities re-sampled",
		"normal_mean", dist.NormalMean, "maximum_mean", dist.MaximumMean)
}
