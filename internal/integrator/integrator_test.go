package integrator

import (
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/ped"
	"github.com/geo-mart/ABPedSim/internal/wayfinding"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

const (
	normalSpeed = 1.2
	maxSpeed    = 1.56
)

func newPedestrian(t *testing.T, start, waypoint vec.V, boundaries []*geo.Boundary) *ped.Pedestrian {
	t.Helper()
	obstacles, err := geo.UnionAll(geo.Geometries(boundaries))
	if err != nil {
		t.Fatalf("failed to union boundaries: %v", err)
	}
	route, err := wayfinding.BuildRoute(start, []vec.V{waypoint}, wayfinding.DefaultGateConfig(), obstacles)
	if err != nil {
		t.Fatalf("failed to build route: %v", err)
	}
	follower := wayfinding.NewFollowWaypoints(route, boundaries, wayfinding.DefaultThresholds(), nil)
	return ped.New("p1", start, normalSpeed, maxSpeed, follower)
}

// step mirrors one tick of the crowd loop: the wayfinding target is
// updated once, then the integrator moves the pedestrian.
func step(in Integrator, timeMs int64, dt float64, p *ped.Pedestrian, boundaries []*geo.Boundary, m force.Model) {
	p.UpdateTarget(timeMs)
	in.Move(timeMs, dt, p, []ped.Snapshot{p.Snapshot()}, boundaries, m)
}

func TestByName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"euler", "forward-euler"},
		{"Forward-Euler", "forward-euler"},
		{"semi-implicit", "semi-implicit-euler"},
		{"RK4", "rk4"},
		{"runge-kutta", "rk4"},
	}
	for _, c := range cases {
		in, err := ByName(c.name)
		if err != nil {
			t.Errorf("ByName(%q): %v", c.name, err)
			continue
		}
		if in.Name() != c.want {
			t.Errorf("ByName(%q) = %s, want %s", c.name, in.Name(), c.want)
		}
	}
	if _, err := ByName("verlet"); err == nil {
		t.Errorf("expected error for unknown integrator")
	}
}

func TestForwardEulerFirstStepFromRest(t *testing.T) {
	p := newPedestrian(t, vec.New(0, 0), vec.New(100, 0), nil)
	m := force.NewBuzna()
	dt := 0.05

	step(ForwardEuler{}, 0, dt, p, nil, m)

	// on the start tick the route average falls back to the normal desired
	// speed, so the first acceleration is normal/tau along the route
	wantSpeed := dt * normalSpeed / m.Params().RelaxationTime
	v := p.Velocity()
	if math.Abs(v.X-wantSpeed) > 1e-9 || math.Abs(v.Y) > 1e-9 {
		t.Errorf("velocity after first step = %v, want (%v, 0)", v, wantSpeed)
	}
	// position must not move before the first force is known
	if p.Position().Distance(vec.New(0, 0)) > 1e-9 {
		t.Errorf("forward Euler moved the pedestrian on the zero velocity step")
	}
}

func TestVelocityClampedToMaximum(t *testing.T) {
	p := newPedestrian(t, vec.New(0, 0), vec.New(100, 0), nil)
	p.SetVelocity(vec.New(10, 0))

	step(SemiImplicitEuler{}, 0, 0.05, p, nil, force.NewBuzna())

	if speed := p.Velocity().Length(); speed > maxSpeed+1e-9 {
		t.Errorf("speed %v exceeds maximum desired velocity %v", speed, maxSpeed)
	}
}

func TestRelaxationTowardNormalSpeed(t *testing.T) {
	// the fixed point of the adaptive desired speed is the normal desired
	// velocity; after the transient the walking speed settles there
	p := newPedestrian(t, vec.New(0, 0), vec.New(500, 0), nil)
	m := force.NewBuzna()
	dt := 0.05

	var timeMs int64
	for tick := 0; tick < 800; tick++ {
		timeMs = int64(float64(tick) * dt * 1000)
		step(SemiImplicitEuler{}, timeMs, dt, p, nil, m)
	}

	speed := p.Velocity().Length()
	if speed > maxSpeed+1e-9 {
		t.Errorf("converged speed %v exceeds maximum %v", speed, maxSpeed)
	}
	if math.Abs(speed-normalSpeed) > 0.05 {
		t.Errorf("converged speed = %v, want about %v", speed, normalSpeed)
	}
	if p.Position().X <= 0 {
		t.Errorf("pedestrian made no progress along the route")
	}
}

func TestMoveRollbackAtWall(t *testing.T) {
	wall := geo.NewBoundary(mustWall(t), 0)
	boundaries := []*geo.Boundary{wall}
	p := newPedestrian(t, vec.New(4.9, 0), vec.New(10, 0), boundaries)
	p.SetVelocity(vec.New(maxSpeed, 0))

	step(ForwardEuler{}, 0, 0.1, p, boundaries, force.NewBuzna())

	if p.Position().Distance(vec.New(4.9, 0)) > 1e-9 {
		t.Errorf("move through the wall was not rolled back, position %v", p.Position())
	}
	// the flag must survive the trailing force evaluation of the same tick
	// so the pedestrian re-plans before its next move
	if !p.Wayfinding().NeedsOrientation() {
		t.Errorf("rolled back move must raise the orientation flag")
	}
}

func mustWall(t *testing.T) geom.Geometry {
	t.Helper()
	parsed, err := geo.ParseWKT("LINESTRING(5 -5, 5 5)")
	if err != nil {
		t.Fatalf("failed to parse wall: %v", err)
	}
	return parsed
}

func TestRungeKuttaStaysFinite(t *testing.T) {
	p := newPedestrian(t, vec.New(0, 0), vec.New(50, 0), nil)
	m := force.NewJohansson()
	dt := 0.05

	for tick := 0; tick < 200; tick++ {
		step(RungeKutta{}, int64(float64(tick)*dt*1000), dt, p, nil, m)
	}

	if p.Position().IsNaN() || p.Velocity().IsNaN() {
		t.Fatalf("state diverged: pos %v vel %v", p.Position(), p.Velocity())
	}
	if speed := p.Velocity().Length(); speed > maxSpeed+1e-9 {
		t.Errorf("speed %v exceeds maximum %v", speed, maxSpeed)
	}
	if p.Position().X <= 1 {
		t.Errorf("pedestrian barely moved: %v", p.Position())
	}
}

func TestSchemesAgreeAtSmallStep(t *testing.T) {
	m := force.NewBuzna()
	dt := 0.01
	ticks := 100

	run := func(in Integrator) vec.V {
		p := newPedestrian(t, vec.New(0, 0), vec.New(100, 0), nil)
		for tick := 0; tick < ticks; tick++ {
			step(in, int64(float64(tick)*dt*1000), dt, p, nil, m)
		}
		return p.Position()
	}

	euler := run(ForwardEuler{})
	semi := run(SemiImplicitEuler{})
	rk4 := run(RungeKutta{})

	if d := semi.Distance(rk4); d > 0.05 {
		t.Errorf("semi-implicit and RK4 diverge by %v m after 1 s", d)
	}
	if d := euler.Distance(rk4); d > 0.1 {
		t.Errorf("forward Euler and RK4 diverge by %v m after 1 s", d)
	}
}
