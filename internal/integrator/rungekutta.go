package integrator

import (
	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/ped"
)

// RungeKutta is the classic fourth order scheme applied to the coupled
// position and velocity system. The force is sampled at the tick start, at
// two midpoints and at the tick end, each with the velocity interpolated to
// the sample time.
type RungeKutta struct{}

func (RungeKutta) Name() string { return "rk4" }

func (RungeKutta) Move(timeMs int64, dt float64, p *ped.Pedestrian, others []ped.Snapshot, boundaries []*geo.Boundary, m force.Model) {
	pos := p.Position()
	v0 := p.Velocity()

	k0 := p.ComputeForcesAt(pos, v0, timeMs, others, boundaries, m)
	v1 := v0.Add(k0.Scale(dt / 2))
	k1 := p.ComputeForcesAt(pos.Add(v0.Scale(dt/2)), v1, timeMs, others, boundaries, m)
	v2 := v0.Add(k1.Scale(dt / 2))
	k2 := p.ComputeForcesAt(pos.Add(v1.Scale(dt/2)), v2, timeMs, others, boundaries, m)
	v3 := v0.Add(k2.Scale(dt))
	k3 := p.ComputeForcesAt(pos.Add(v2.Scale(dt)), v3, timeMs, others, boundaries, m)

	accel := k0.Add(k1.Scale(2)).Add(k2.Scale(2)).Add(k3).Scale(1.0 / 6.0)
	v := clampVelocity(v0.Add(accel.Scale(dt)), p.MaximumDesiredVelocity())
	p.SetVelocity(v)

	step := v0.Add(v1.Scale(2)).Add(v2.Scale(2)).Add(v3).Scale(dt / 6)
	applyMove(p, pos.Add(step), boundaries)
	checkWayfinding(p, pos, timeMs)
}
