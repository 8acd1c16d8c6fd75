package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geo-mart/ABPedSim/internal/cache"
	"github.com/geo-mart/ABPedSim/internal/crowd"
	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/internal/integrator"
	"github.com/geo-mart/ABPedSim/internal/sim"
	"github.com/geo-mart/ABPedSim/internal/wayfinding"
	"github.com/geo-mart/ABPedSim/pkg/core"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// mockBackend implements storage.Backend for testing
type mockBackend struct {
	mu          sync.Mutex
	pedestrians []core.Pedestrian
	points      []core.TrajectoryPoint
	cells       []core.DensityCell
	stats       []core.TickStats
	started     bool
	ended       bool
	failStart   bool
}

func (b *mockBackend) Init() error  { return nil }
func (b *mockBackend) Close() error { return nil }

func (b *mockBackend) StartRun(run *core.Run, scene *core.Scene) error {
	if b.failStart {
		return errors.New("start refused")
	}
	b.started = true
	run.ID = 7
	return nil
}

func (b *mockBackend) EndRun() error {
	b.ended = true
	return nil
}

func (b *mockBackend) AddPedestrian(p *core.Pedestrian) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pedestrians = append(b.pedestrians, *p)
	return nil
}

func (b *mockBackend) RecordTrajectoryPoint(tp *core.TrajectoryPoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = append(b.points, *tp)
	return nil
}

func (b *mockBackend) RecordDensityCell(dc *core.DensityCell) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cells = append(b.cells, *dc)
	return nil
}

func (b *mockBackend) RecordTickStats(ts *core.TickStats) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = append(b.stats, *ts)
	return nil
}

// buildSim assembles a two-walker simulator with one crowd and a wall far
// from the walk.
func buildSim(t *testing.T) *sim.Simulator {
	t.Helper()
	g, err := geo.ParseWKT("LINESTRING(-20 -20, -19 -20)")
	if err != nil {
		t.Fatalf("failed to parse boundary: %v", err)
	}
	boundaries := []*geo.Boundary{geo.NewBoundary(g, force.NewBuzna().MaxBoundaryInteractionDistance())}
	s, err := sim.New(boundaries, sim.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("failed to build simulator: %v", err)
	}
	c := crowd.New("commuters", force.NewBuzna(), integrator.SemiImplicitEuler{},
		crowd.DefaultVelocityDistribution(), crowd.WithWorkers(1), crowd.WithSeed(7))
	for i, start := range []vec.V{vec.New(0, 0), vec.New(0, 3)} {
		route, err := wayfinding.BuildRoute(start, []vec.V{vec.New(20, 0)}, wayfinding.DefaultGateConfig(), s.Obstacles())
		if err != nil {
			t.Fatalf("failed to build route: %v", err)
		}
		follower := wayfinding.NewFollowWaypoints(route, nil, wayfinding.DefaultThresholds(), nil)
		c.Add([]string{"p1", "p2"}[i], start, follower)
	}
	s.AddCrowd(c)
	if err := s.Validate(); err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	return s
}

func newManager(t *testing.T, backend *mockBackend) (*Manager, *sim.Simulator) {
	t.Helper()
	s := buildSim(t)
	deps := Dependencies{
		PedestrianCache: cache.NewPedestrianCache(),
	}
	return NewManager(deps, backend, s, 1000), s
}

func TestStartRun_RegistersPedestrians(t *testing.T) {
	backend := &mockBackend{}
	m, _ := newManager(t, backend)

	run := &core.Run{Name: "r"}
	if err := m.StartRun(run, &core.Scene{Name: "s"}); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	if !backend.started {
		t.Error("backend StartRun not called")
	}
	if len(backend.pedestrians) != 2 {
		t.Fatalf("expected 2 registered pedestrians, got %d", len(backend.pedestrians))
	}
	if run.PedestrianCount != 2 {
		t.Errorf("run pedestrian count = %d, want 2", run.PedestrianCount)
	}
	if backend.pedestrians[0].CrowdName != "commuters" {
		t.Errorf("crowd name = %q", backend.pedestrians[0].CrowdName)
	}
	if m.deps.PedestrianCache.Len() != 2 {
		t.Errorf("cache holds %d pedestrians, want 2", m.deps.PedestrianCache.Len())
	}
	if backend.pedestrians[0].RunID != 7 {
		t.Errorf("pedestrian run id = %d, want 7", backend.pedestrians[0].RunID)
	}
}

func TestStartRun_BackendFailure(t *testing.T) {
	backend := &mockBackend{failStart: true}
	m, _ := newManager(t, backend)

	err := m.StartRun(&core.Run{Name: "r"}, &core.Scene{Name: "s"})
	if err == nil {
		t.Fatal("expected error from refused start")
	}
}

func TestRecordTick_BeforeStart(t *testing.T) {
	backend := &mockBackend{}
	m, _ := newManager(t, backend)

	if err := m.RecordTick(50, time.Millisecond); !errors.Is(err, ErrNoActiveRun) {
		t.Fatalf("expected ErrNoActiveRun, got %v", err)
	}
}

func TestRecordTick_CapturesState(t *testing.T) {
	backend := &mockBackend{}
	m, s := newManager(t, backend)

	if err := m.StartRun(&core.Run{Name: "r"}, &core.Scene{Name: "s"}); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := s.Step(0.05); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if err := m.RecordTick(50, 2*time.Millisecond); err != nil {
		t.Fatalf("RecordTick failed: %v", err)
	}

	if len(backend.points) != 2 {
		t.Errorf("expected 2 trajectory points, got %d", len(backend.points))
	}
	for _, tp := range backend.points {
		if tp.SimTimeMs != 50 {
			t.Errorf("trajectory point sim time = %d, want 50", tp.SimTimeMs)
		}
		if tp.RunID != 7 {
			t.Errorf("trajectory point run id = %d, want 7", tp.RunID)
		}
	}

	if len(backend.stats) != 1 {
		t.Fatalf("expected 1 tick stats sample, got %d", len(backend.stats))
	}
	st := backend.stats[0]
	if st.PedestrianCount != 2 {
		t.Errorf("pedestrian count = %d, want 2", st.PedestrianCount)
	}
	if st.Workers != 1 {
		t.Errorf("workers = %d, want 1", st.Workers)
	}
	if st.WallDuration != 2*time.Millisecond {
		t.Errorf("wall duration = %v", st.WallDuration)
	}

	// grid enabled by default, both walkers fall into occupied cells
	if len(backend.cells) == 0 {
		t.Error("expected density cells on the first tick")
	}
}

func TestRecordTick_DensityThrottled(t *testing.T) {
	backend := &mockBackend{}
	m, s := newManager(t, backend)

	if err := m.StartRun(&core.Run{Name: "r"}, &core.Scene{Name: "s"}); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	if err := s.Step(0.05); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if err := m.RecordTick(50, time.Millisecond); err != nil {
		t.Fatalf("RecordTick failed: %v", err)
	}
	firstCount := len(backend.cells)
	if firstCount == 0 {
		t.Fatal("expected density cells on the first tick")
	}

	// still inside the 1000 ms density interval
	if err := s.Step(0.05); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if err := m.RecordTick(100, time.Millisecond); err != nil {
		t.Fatalf("RecordTick failed: %v", err)
	}
	if len(backend.cells) != firstCount {
		t.Errorf("density recorded inside the interval: %d -> %d cells", firstCount, len(backend.cells))
	}
}

func TestEndRun(t *testing.T) {
	backend := &mockBackend{}
	m, _ := newManager(t, backend)

	if err := m.EndRun(); !errors.Is(err, ErrNoActiveRun) {
		t.Fatalf("expected ErrNoActiveRun, got %v", err)
	}

	if err := m.StartRun(&core.Run{Name: "r"}, &core.Scene{Name: "s"}); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := m.EndRun(); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}
	if !backend.ended {
		t.Error("backend EndRun not called")
	}
}
