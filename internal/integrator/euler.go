package integrator

import (
	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/ped"
)

// ForwardEuler moves the pedestrian with its current velocity first, then
// computes the force at the new position to produce the next velocity.
type ForwardEuler struct{}

func (ForwardEuler) Name() string { return "forward-euler" }

func (ForwardEuler) Move(timeMs int64, dt float64, p *ped.Pedestrian, others []ped.Snapshot, boundaries []*geo.Boundary, m force.Model) {
	oldPos := p.Position()
	applyMove(p, oldPos.Add(p.Velocity().Scale(dt)), boundaries)
	checkWayfinding(p, oldPos, timeMs)

	f := p.ComputeForces(timeMs, others, boundaries, m)
	p.SetVelocity(clampVelocity(p.Velocity().Add(f.Scale(dt)), p.MaximumDesiredVelocity()))
}

// SemiImplicitEuler computes the force at the current position first and
// moves the pedestrian with the already updated velocity. The scheme damps
// the energy drift plain Euler shows at coarse time steps.
type SemiImplicitEuler struct{}

func (SemiImplicitEuler) Name() string { return "semi-implicit-euler" }

func (SemiImplicitEuler) Move(timeMs int64, dt float64, p *ped.Pedestrian, others []ped.Snapshot, boundaries []*geo.Boundary, m force.Model) {
	f := p.ComputeForces(timeMs, others, boundaries, m)
	v := clampVelocity(p.Velocity().Add(f.Scale(dt)), p.MaximumDesiredVelocity())
	p.SetVelocity(v)

	oldPos := p.Position()
	applyMove(p, oldPos.Add(v.Scale(dt)), boundaries)
	checkWayfinding(p, oldPos, timeMs)
}
