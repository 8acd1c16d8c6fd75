package ingest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/geo-mart/ABPedSim/internal/cache"
	"github.com/geo-mart/ABPedSim/internal/config"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T) config.IngestConfig {
	t.Helper()
	dir := t.TempDir()
	return config.IngestConfig{
		BoundariesFile: writeFile(t, dir, "boundaries.csv",
			"WKT\nPOLYGON((5 5, 8 5, 8 8, 5 8, 5 5))\n"),
		RoutesFile: writeFile(t, dir, "routes.csv",
			"name;WKT\nexit;POINT (20 0)\nplatform;POINT (20 10)\n"),
		PedestriansFile: writeFile(t, dir, "pedestrians.csv",
			"startWKT,crowd,mentalModel,wktWayPoints\n"+
				"POINT (0 0),commuters,FollowWayPointsMentalModel,\"[POINT (10 0), exit]\"\n"+
				"POINT (0 3),commuters,,[exit]\n"+
				"POINT (1 1),,,[platform]\n"),
	}
}

func TestLoadScenario(t *testing.T) {
	routes := cache.NewRouteCache()
	l := NewLoader(testConfig(t), routes, nil)

	scenario, err := l.LoadScenario()
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	if len(scenario.BoundaryGeometries) != 1 {
		t.Fatalf("expected 1 boundary, got %d", len(scenario.BoundaryGeometries))
	}
	if len(scenario.BoundaryWKT) != 1 {
		t.Errorf("expected 1 boundary WKT, got %d", len(scenario.BoundaryWKT))
	}
	if len(scenario.Pedestrians) != 3 {
		t.Fatalf("expected 3 pedestrians, got %d", len(scenario.Pedestrians))
	}

	p1 := scenario.Pedestrians[0]
	if p1.ID != "p1" || p1.Crowd != "commuters" {
		t.Errorf("unexpected first pedestrian: %+v", p1)
	}
	if !p1.Start.Eq(vec.New(0, 0)) {
		t.Errorf("start = %s, want (0, 0)", p1.Start)
	}
	if len(p1.Route) != 2 || !p1.Route[0].Eq(vec.New(10, 0)) || !p1.Route[1].Eq(vec.New(20, 0)) {
		t.Errorf("unexpected route: %v", p1.Route)
	}

	// named waypoints resolve through the cache
	if pos, ok := routes.Get("exit"); !ok || !pos.Eq(vec.New(20, 0)) {
		t.Errorf("exit waypoint = %v, %v", pos, ok)
	}

	// empty crowd column falls back to the default crowd
	if scenario.Pedestrians[2].Crowd != "default" {
		t.Errorf("crowd = %s, want default", scenario.Pedestrians[2].Crowd)
	}
}

func TestCrowdGrouping(t *testing.T) {
	l := NewLoader(testConfig(t), nil, nil)
	scenario, err := l.LoadScenario()
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	names := scenario.CrowdNames()
	if len(names) != 2 || names[0] != "commuters" || names[1] != "default" {
		t.Errorf("unexpected crowd names: %v", names)
	}
	if got := len(scenario.PedestriansIn("commuters")); got != 2 {
		t.Errorf("commuters size = %d, want 2", got)
	}
}

func TestBoundaries_Expanded(t *testing.T) {
	l := NewLoader(testConfig(t), nil, nil)
	scenario, err := l.LoadScenario()
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	bs := scenario.Boundaries(2)
	if len(bs) != 1 {
		t.Fatalf("expected 1 boundary, got %d", len(bs))
	}
	box := bs[0].BBox()
	if box.MinX != 3 || box.MaxX != 10 {
		t.Errorf("bbox not expanded: %+v", box)
	}
}

func TestLoadScenario_Reprojects4326(t *testing.T) {
	dir := t.TempDir()
	cfg := config.IngestConfig{
		SourceEPSG: 4326,
		BoundariesFile: writeFile(t, dir, "boundaries.csv",
			"WKT\nPOLYGON((9.99 53.55, 10.00 53.55, 10.00 53.56, 9.99 53.55))\n"),
		PedestriansFile: writeFile(t, dir, "pedestrians.csv",
			"startWKT,crowd,mentalModel,wktWayPoints\n"+
				"POINT (9.99 53.55),walkers,,[POINT (10.00 53.55)]\n"),
	}

	scenario, err := NewLoader(cfg, nil, nil).LoadScenario()
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	start := scenario.Pedestrians[0].Start
	if start.X < 1.0e6 || start.X > 1.2e6 {
		t.Errorf("start not reprojected, easting %f", start.X)
	}
	target := scenario.Pedestrians[0].Route[0]
	if math.Abs(target.X-start.X) < 100 {
		t.Errorf("waypoint should be east of start: %f vs %f", target.X, start.X)
	}
}

func TestLoadScenario_UnknownWaypoint(t *testing.T) {
	dir := t.TempDir()
	cfg := config.IngestConfig{
		BoundariesFile: writeFile(t, dir, "boundaries.csv", "WKT\n"),
		PedestriansFile: writeFile(t, dir, "pedestrians.csv",
			"startWKT,crowd,mentalModel,wktWayPoints\n"+
				"POINT (0 0),walkers,,[nowhere]\n"),
	}

	_, err := NewLoader(cfg, nil, nil).LoadScenario()
	if err == nil {
		t.Fatal("expected error for unknown waypoint name")
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	cfg := config.IngestConfig{
		BoundariesFile:  "/nonexistent/boundaries.csv",
		PedestriansFile: "/nonexistent/pedestrians.csv",
	}
	_, err := NewLoader(cfg, nil, nil).LoadScenario()
	if err == nil {
		t.Fatal("expected error for missing boundaries file")
	}
}
