// Package integrator advances pedestrian state by one tick. All schemes
// share the same post-processing: the velocity is clamped to the maximum
// desired velocity and a move whose path crosses a boundary is rolled back.
package integrator

import (
	"fmt"
	"strings"

	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/ped"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Integrator advances one pedestrian by dt seconds. timeMs is the simulated
// time of the tick. others is the immutable snapshot of all pedestrians
// taken before any of them moved.
type Integrator interface {
	Move(timeMs int64, dt float64, p *ped.Pedestrian, others []ped.Snapshot, boundaries []*geo.Boundary, m force.Model)
	Name() string
}

// ByName resolves an integrator from its configured name.
func ByName(name string) (Integrator, error) {
	switch strings.ToLower(name) {
	case "euler", "forward-euler":
		return ForwardEuler{}, nil
	case "semi-implicit", "semi-implicit-euler", "symplectic":
		return SemiImplicitEuler{}, nil
	case "rk4", "runge-kutta":
		return RungeKutta{}, nil
	}
	return nil, fmt.Errorf("unknown integrator %q", name)
}

// clampVelocity caps the speed at max. The comparison is done on squared
// lengths so the square root is only taken when the clamp applies.
func clampVelocity(v vec.V, max float64) vec.V {
	if v.LengthSquared() <= max*max {
		return v
	}
	return v.Normalize().Scale(max)
}

// applyMove commits the move from the pedestrian's current position to
// newPos unless the path crosses a boundary. A rejected move keeps the old
// position and raises the orientation flag, so the pedestrian re-plans
// before trying again.
func applyMove(p *ped.Pedestrian, newPos vec.V, boundaries []*geo.Boundary) {
	oldPos := p.Position()
	for _, b := range boundaries {
		if !b.BBox().IntersectsSegment(oldPos, newPos) {
			continue
		}
		if geo.SegmentCrosses(oldPos, newPos, b.Geometry()) {
			p.Wayfinding().SetNeedsOrientation(true)
			return
		}
	}
	p.SetPosition(newPos)
}

// checkWayfinding runs the per-move route bookkeeping after the position is
// final for this tick.
func checkWayfinding(p *ped.Pedestrian, oldPos vec.V, timeMs int64) {
	wf := p.Wayfinding()
	wf.CheckWaypointPassing(timeMs, oldPos, p.Position())
	wf.CheckCourse(p.Position(), p.Velocity(), timeMs)
}
