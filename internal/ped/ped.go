// Package ped holds the pedestrian agent: its kinematic state, the force
// breakdown acting on it, and its recorded trajectory.
package ped

import (
	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/wayfinding"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Snapshot is the immutable per-tick view of a pedestrian that other
// pedestrians compute their interaction forces against. All pedestrians in a
// tick see the same snapshot set regardless of update order.
type Snapshot struct {
	ID       string
	Position vec.V
	Velocity vec.V
}

// Forces is the decomposed force acting on a pedestrian, kept for
// diagnostics and export.
type Forces struct {
	Intrinsic   vec.V
	Pedestrians vec.V
	Boundaries  vec.V
	Total       vec.V
}

// TrajectoryPoint is one recorded position with its simulated timestamp.
type TrajectoryPoint struct {
	TimeMs   int64
	Position vec.V
}

// Pedestrian is a single simulated agent. It is mutated only by its crowd's
// integrator; concurrent readers must go through Snapshot.
type Pedestrian struct {
	id              string
	position        vec.V
	initialPosition vec.V
	velocity        vec.V

	// normalDesiredVelocity is the free-walking speed, maximumDesiredVelocity
	// the hard cap the integrator clamps to.
	normalDesiredVelocity  float64
	maximumDesiredVelocity float64

	wayfinding wayfinding.Model
	forces     Forces
	trajectory []TrajectoryPoint
}

// New creates a pedestrian at the given start position.
func New(id string, position vec.V, normalVelocity, maximumVelocity float64, model wayfinding.Model) *Pedestrian {
	return &Pedestrian{
		id:                     id,
		position:               position,
		initialPosition:        position,
		normalDesiredVelocity:  normalVelocity,
		maximumDesiredVelocity: maximumVelocity,
		wayfinding:             model,
	}
}

func (p *Pedestrian) ID() string { return p.id }

func (p *Pedestrian) Position() vec.V { return p.position }

func (p *Pedestrian) InitialPosition() vec.V { return p.initialPosition }

func (p *Pedestrian) Velocity() vec.V { return p.velocity }

func (p *Pedestrian) NormalDesiredVelocity() float64 { return p.normalDesiredVelocity }

func (p *Pedestrian) MaximumDesiredVelocity() float64 { return p.maximumDesiredVelocity }

// SetDesiredVelocities replaces both speed parameters, used when the crowd's
// velocity distribution is re-sampled.
func (p *Pedestrian) SetDesiredVelocities(normal, maximum float64) {
	p.normalDesiredVelocity = normal
	p.maximumDesiredVelocity = maximum
}

// SetPosition moves the pedestrian without recording a trajectory point.
func (p *Pedestrian) SetPosition(v vec.V) { p.position = v }

func (p *Pedestrian) SetVelocity(v vec.V) { p.velocity = v }

// Wayfinding returns the pedestrian's route-following state machine.
func (p *Pedestrian) Wayfinding() wayfinding.Model { return p.wayfinding }

// Forces returns the force breakdown of the last computation.
func (p *Pedestrian) Forces() Forces { return p.forces }

// Snapshot captures the state other pedestrians interact with this tick.
func (p *Pedestrian) Snapshot() Snapshot {
	return Snapshot{ID: p.id, Position: p.position, Velocity: p.velocity}
}

// Trajectory returns the recorded path. The slice is append-only and must
// not be mutated by the caller.
func (p *Pedestrian) Trajectory() []TrajectoryPoint {
	return p.trajectory
}

// RecordPosition appends the current position to the trajectory. Positions
// with NaN components are dropped so a single bad tick cannot corrupt the
// exported path.
func (p *Pedestrian) RecordPosition(timeMs int64) {
	if p.position.IsNaN() {
		return
	}
	p.trajectory = append(p.trajectory, TrajectoryPoint{TimeMs: timeMs, Position: p.position})
}

// UpdateTarget advances the wayfinding state machine from the current
// position. It runs exactly once per tick, before integration, so every
// force evaluation within the tick sees the same target and a rolled-back
// move's orientation flag survives into the next tick.
func (p *Pedestrian) UpdateTarget(timeMs int64) {
	p.wayfinding.UpdateTarget(p.position, timeMs, p.normalDesiredVelocity)
}

// ComputeForces evaluates the social force model at the pedestrian's current
// position and stores the breakdown. others is the tick's snapshot set and
// may include this pedestrian, which is skipped by id.
func (p *Pedestrian) ComputeForces(timeMs int64, others []Snapshot, boundaries []*geo.Boundary, m force.Model) vec.V {
	return p.ComputeForcesAt(p.position, p.velocity, timeMs, others, boundaries, m)
}

// ComputeForcesAt evaluates the force model at an arbitrary state, used by
// integrators that probe intermediate positions. The wayfinding state is
// only read here, never advanced.
func (p *Pedestrian) ComputeForcesAt(position, velocity vec.V, timeMs int64, others []Snapshot, boundaries []*geo.Boundary, m force.Model) vec.V {
	wf := p.wayfinding
	direction := wf.Direction()

	intrinsic := m.IntrinsicForce(velocity, direction,
		wf.AverageSpeed(position, timeMs), p.currentDesiredVelocity(position, timeMs),
		p.maximumDesiredVelocity)

	var fromPeds vec.V
	for _, other := range others {
		if other.ID == p.id {
			continue
		}
		fromPeds = fromPeds.Add(m.PedestrianInteraction(position, direction, other.Position))
	}

	var fromBoundaries vec.V
	for _, b := range boundaries {
		fromBoundaries = fromBoundaries.Add(m.BoundaryInteraction(position, direction, b))
	}

	p.forces = Forces{
		Intrinsic:   intrinsic,
		Pedestrians: fromPeds,
		Boundaries:  fromBoundaries,
		Total:       intrinsic.Add(fromPeds).Add(fromBoundaries),
	}
	return p.forces.Total
}

// currentDesiredVelocity is zero once the route is finished, which makes the
// intrinsic force a pure braking term.
func (p *Pedestrian) currentDesiredVelocity(position vec.V, timeMs int64) float64 {
	if p.wayfinding.Destination() == nil {
		return 0
	}
	return p.normalDesiredVelocity
}
