package crowd

import (
	"fmt"
	"strings"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/integrator"
	"github.com/geo-mart/ABPedSim/internal/wayfinding"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

func buildCrowd(t *testing.T, workers int, size int) *Crowd {
	t.Helper()
	c := New("test", force.NewBuzna(), integrator.SemiImplicitEuler{}, DefaultVelocityDistribution(),
		WithWorkers(workers), WithSeed(42))
	empty := geom.NewGeometryCollection(nil).AsGeometry()
	for i := 0; i < size; i++ {
		start := vec.New(0, float64(i)*2)
		route, err := wayfinding.BuildRoute(start, []vec.V{vec.New(30, float64(i)*2)},
			wayfinding.DefaultGateConfig(), empty)
		if err != nil {
			t.Fatalf("failed to build route: %v", err)
		}
		follower := wayfinding.NewFollowWaypoints(route, nil, wayfinding.DefaultThresholds(), nil)
		c.Add(fmt.Sprintf("p%d", i), start, follower)
	}
	return c
}

func runTicks(t *testing.T, c *Crowd, ticks int) {
	t.Helper()
	dt := 0.05
	for tick := 0; tick < ticks; tick++ {
		timeMs := int64(float64(tick) * dt * 1000)
		snapshots := c.Snapshots()
		if err := c.Tick(timeMs, dt, snapshots, nil); err != nil {
			t.Fatalf("tick %d failed: %v", tick, err)
		}
	}
}

func TestTickDeterministicAcrossWorkerCounts(t *testing.T) {
	sequential := buildCrowd(t, 1, 8)
	pooled := buildCrowd(t, 4, 8)

	runTicks(t, sequential, 100)
	runTicks(t, pooled, 100)

	seqPeds := sequential.Pedestrians()
	poolPeds := pooled.Pedestrians()
	for i := range seqPeds {
		a, b := seqPeds[i], poolPeds[i]
		if a.Position() != b.Position() {
			t.Errorf("pedestrian %s position differs: sequential %v, pooled %v", a.ID(), a.Position(), b.Position())
		}
		if a.Velocity() != b.Velocity() {
			t.Errorf("pedestrian %s velocity differs: sequential %v, pooled %v", a.ID(), a.Velocity(), b.Velocity())
		}
	}
}

func TestSampledVelocitiesWithinBounds(t *testing.T) {
	c := buildCrowd(t, 1, 50)
	dist := DefaultVelocityDistribution()
	for _, p := range c.Pedestrians() {
		n, m := p.NormalDesiredVelocity(), p.MaximumDesiredVelocity()
		if n < dist.NormalMean-clampSigma*dist.NormalStdDev || n > dist.NormalMean+clampSigma*dist.NormalStdDev {
			t.Errorf("normal speed %v outside the truncation bounds", n)
		}
		if m < n {
			t.Errorf("maximum speed %v below normal speed %v", m, n)
		}
		if m > dist.MaximumMean+clampSigma*dist.MaximumStdDev {
			t.Errorf("maximum speed %v outside the truncation bounds", m)
		}
	}
}

func TestSetVelocityDistributionResamples(t *testing.T) {
	c := buildCrowd(t, 1, 10)
	slow := VelocityDistribution{NormalMean: 0.5, NormalStdDev: 0.05, MaximumMean: 0.6, MaximumStdDev: 0.05}
	c.SetVelocityDistribution(slow)

	for _, p := range c.Pedestrians() {
		if p.NormalDesiredVelocity() > slow.NormalMean+clampSigma*slow.NormalStdDev {
			t.Errorf("pedestrian %s kept its old desired speed %v", p.ID(), p.NormalDesiredVelocity())
		}
	}
	if got := c.VelocityDistribution(); got != slow {
		t.Errorf("distribution = %+v, want %+v", got, slow)
	}
}

func TestSwapModelAndIntegrator(t *testing.T) {
	c := buildCrowd(t, 1, 2)
	c.SetIntegrator(integrator.RungeKutta{})
	if c.Integrator().Name() != "rk4" {
		t.Errorf("integrator swap not visible")
	}
	johansson := force.NewJohansson()
	c.SetModel(johansson)
	if c.Model() != johansson {
		t.Errorf("model swap not visible")
	}
	// the crowd still ticks with the swapped pair
	runTicks(t, c, 10)
}

type panicModel struct {
	force.Model
}

func (panicModel) IntrinsicForce(velocity, direction vec.V, avgVelocity, desiredVelocity, maxVelocity float64) vec.V {
	panic("intrinsic force exploded")
}

func TestTickSurfacesPerPedestrianFailure(t *testing.T) {
	c := buildCrowd(t, 1, 1)
	c.SetModel(panicModel{force.NewBuzna()})

	err := c.Tick(0, 0.05, c.Snapshots(), nil)
	if err == nil {
		t.Fatalf("tick swallowed the pedestrian failure")
	}
	if !strings.Contains(err.Error(), "p0") {
		t.Errorf("error %q does not name the failing pedestrian", err)
	}
}

func TestSnapshotsAreStable(t *testing.T) {
	c := buildCrowd(t, 1, 3)
	snaps := c.Snapshots()
	if err := c.Tick(0, 0.05, snaps, []*geo.Boundary{}); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	// the snapshot set must still show the pre-tick state
	for i, s := range snaps {
		if s.Position != vec.New(0, float64(i)*2) {
			t.Errorf("snapshot %s mutated by the tick: %v", s.ID, s.Position)
		}
	}
}
