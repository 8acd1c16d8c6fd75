// Package ingest loads scenario input files: obstacle boundaries, named
// route waypoints and pedestrian start definitions. All geometry is
// returned in the metric EPSG:3857 plane; inputs declared as EPSG:4326
// are reprojected on load.
package ingest

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/internal/cache"
	"github.com/geo-mart/ABPedSim/internal/config"
	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// BoundaryRow mirrors one line of the boundaries CSV. The file is
// semicolon separated with a WKT geometry column.
type BoundaryRow struct {
	WKT string `csv:"WKT"`
}

// RouteRow mirrors one line of the named waypoints CSV.
type RouteRow struct {
	Name string `csv:"name"`
	WKT  string `csv:"WKT"`
}

// PedestrianRow mirrors one line of the pedestrians CSV. WayPoints holds a
// bracketed list of WKT points or waypoint names, for example
// "[POINT (20 0), exit]".
type PedestrianRow struct {
	StartWKT  string `csv:"startWKT"`
	Crowd     string `csv:"crowd"`
	Model     string `csv:"mentalModel"`
	WayPoints string `csv:"wktWayPoints"`
}

// PedestrianSpec is one fully resolved pedestrian definition.
type PedestrianSpec struct {
	ID    string
	Crowd string
	Start vec.V
	Route []vec.V
}

// Scenario is the loaded input set, ready for simulator assembly.
type Scenario struct {
	BoundaryGeometries []geom.Geometry
	BoundaryWKT        []string
	Pedestrians        []PedestrianSpec
}

// Boundaries wraps the loaded geometries as obstacles. The bounding boxes
// are expanded by the force model's boundary interaction distance.
func (s *Scenario) Boundaries(maxInteractionDistance float64) []*geo.Boundary {
	out := make([]*geo.Boundary, len(s.BoundaryGeometries))
	for i, g := range s.BoundaryGeometries {
		out[i] = geo.NewBoundary(g, maxInteractionDistance)
	}
	return out
}

// CrowdNames returns the distinct crowd names in input order.
func (s *Scenario) CrowdNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range s.Pedestrians {
		if !seen[p.Crowd] {
			seen[p.Crowd] = true
			names = append(names, p.Crowd)
		}
	}
	return names
}

// PedestriansIn returns the pedestrians belonging to the named crowd.
func (s *Scenario) PedestriansIn(crowd string) []PedestrianSpec {
	var out []PedestrianSpec
	for _, p := range s.Pedestrians {
		if p.Crowd == crowd {
			out = append(out, p)
		}
	}
	return out
}

// Loader reads scenario files per the ingest configuration.
type Loader struct {
	cfg    config.IngestConfig
	routes *cache.RouteCache
	logger *slog.Logger
}

// NewLoader creates a loader. Named waypoints from the routes file are
// published through the given route cache.
func NewLoader(cfg config.IngestConfig, routes *cache.RouteCache, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if routes == nil {
		routes = cache.NewRouteCache()
	}
	return &Loader{cfg: cfg, routes: routes, logger: logger}
}

// LoadScenario loads boundaries, named routes and pedestrians. The routes
// file is optional; boundaries and pedestrians are required.
func (l *Loader) LoadScenario() (*Scenario, error) {
	scenario := &Scenario{}

	if err := l.loadBoundaries(scenario); err != nil {
		return nil, err
	}
	if l.cfg.RoutesFile != "" {
		if err := l.loadRoutes(); err != nil {
			return nil, err
		}
	}
	if err := l.loadPedestrians(scenario); err != nil {
		return nil, err
	}

	l.logger.Info("scenario loaded",
		"boundaries", len(scenario.BoundaryGeometries),
		"pedestrians", len(scenario.Pedestrians),
		"crowds", len(scenario.CrowdNames()))
	return scenario, nil
}

func (l *Loader) loadBoundaries(scenario *Scenario) error {
	f, err := os.Open(l.cfg.BoundariesFile)
	if err != nil {
		return fmt.Errorf("failed to open boundaries file: %w", err)
	}
	defer f.Close()

	// geometry CSVs are semicolon separated
	reader := csv.NewReader(f)
	reader.Comma = ';'

	var rows []BoundaryRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return fmt.Errorf("failed to parse boundaries file: %w", err)
	}

	for i, row := range rows {
		g, err := geo.ParseWKT(row.WKT)
		if err != nil {
			return fmt.Errorf("boundary row %d: %w", i+1, err)
		}
		if l.cfg.SourceEPSG == 4326 {
			g, err = geo.Reproject3857From4326(g)
			if err != nil {
				return fmt.Errorf("boundary row %d: %w", i+1, err)
			}
		}
		scenario.BoundaryGeometries = append(scenario.BoundaryGeometries, g)
		scenario.BoundaryWKT = append(scenario.BoundaryWKT, g.AsText())
	}
	return nil
}

func (l *Loader) loadRoutes() error {
	f, err := os.Open(l.cfg.RoutesFile)
	if err != nil {
		return fmt.Errorf("failed to open routes file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'

	var rows []RouteRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return fmt.Errorf("failed to parse routes file: %w", err)
	}

	for i, row := range rows {
		p, err := l.parsePoint(row.WKT)
		if err != nil {
			return fmt.Errorf("route row %d: %w", i+1, err)
		}
		l.routes.Set(row.Name, p)
	}
	l.logger.Debug("named waypoints loaded", "count", len(rows))
	return nil
}

func (l *Loader) loadPedestrians(scenario *Scenario) error {
	f, err := os.Open(l.cfg.PedestriansFile)
	if err != nil {
		return fmt.Errorf("failed to open pedestrians file: %w", err)
	}
	defer f.Close()

	var rows []PedestrianRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return fmt.Errorf("failed to parse pedestrians file: %w", err)
	}

	for i, row := range rows {
		if row.Model != "" && row.Model != "FollowWayPointsMentalModel" {
			l.logger.Warn("unknown wayfinding model, using waypoint following",
				"model", row.Model, "row", i+1)
		}

		start, err := l.parsePoint(row.StartWKT)
		if err != nil {
			return fmt.Errorf("pedestrian row %d: %w", i+1, err)
		}
		route, err := l.parseRoute(row.WayPoints)
		if err != nil {
			return fmt.Errorf("pedestrian row %d: %w", i+1, err)
		}

		crowdName := row.Crowd
		if crowdName == "" {
			crowdName = "default"
		}
		scenario.Pedestrians = append(scenario.Pedestrians, PedestrianSpec{
			ID:    fmt.Sprintf("p%d", i+1),
			Crowd: crowdName,
			Start: start,
			Route: route,
		})
	}
	return nil
}

// parseRoute resolves a bracketed waypoint list. Each entry is either a WKT
// point or the name of a waypoint from the routes file.
func (l *Loader) parseRoute(s string) ([]vec.V, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("waypoint list %q is not bracketed", s)
	}
	var route []vec.V
	for _, entry := range strings.Split(s[1:len(s)-1], ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(entry), "POINT") {
			p, err := l.parsePoint(entry)
			if err != nil {
				return nil, err
			}
			route = append(route, p)
			continue
		}
		p, ok := l.routes.Get(entry)
		if !ok {
			return nil, fmt.Errorf("unknown waypoint name %q", entry)
		}
		route = append(route, p)
	}
	if len(route) == 0 {
		return nil, fmt.Errorf("empty waypoint list")
	}
	return route, nil
}

func (l *Loader) parsePoint(wkt string) (vec.V, error) {
	g, err := geo.ParseWKT(wkt)
	if err != nil {
		return vec.V{}, err
	}
	if g.Type() != geom.TypePoint {
		return vec.V{}, fmt.Errorf("expected a point, got %s", g.Type())
	}
	xy, ok := g.MustAsPoint().XY()
	if !ok {
		return vec.V{}, fmt.Errorf("empty point")
	}
	if l.cfg.SourceEPSG == 4326 {
		return geo.Coords3857From4326(xy.X, xy.Y), nil
	}
	return vec.V{X: xy.X, Y: xy.Y}, nil
}
