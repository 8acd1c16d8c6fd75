package geo

import (
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

func mustWKT(t *testing.T, wkt string) geom.Geometry {
	t.Helper()
	g, err := ParseWKT(wkt)
	if err != nil {
		t.Fatalf("ParseWKT(%q): %v", wkt, err)
	}
	return g
}

func TestParseWKTInvalid(t *testing.T) {
	_, err := ParseWKT("NOT A GEOMETRY")
	if err == nil {
		t.Fatal("expected error for invalid WKT")
	}
}

func TestNearestPointOnSegment(t *testing.T) {
	g := mustWKT(t, "LINESTRING(0 0, 10 0)")
	p, ok := NearestPoint(vec.New(5, 3), g)
	if !ok {
		t.Fatal("expected a nearest point")
	}
	if !p.Eq(vec.New(5, 0)) {
		t.Errorf("nearest point = %s, want (5, 0)", p)
	}
}

func TestNearestPointClampedToEndpoint(t *testing.T) {
	g := mustWKT(t, "LINESTRING(0 0, 10 0)")
	p, ok := NearestPoint(vec.New(14, 2), g)
	if !ok {
		t.Fatal("expected a nearest point")
	}
	if !p.Eq(vec.New(10, 0)) {
		t.Errorf("nearest point = %s, want (10, 0)", p)
	}
}

func TestNearestPointOnPolygonRing(t *testing.T) {
	g := mustWKT(t, "POLYGON((0 0, 4 0, 4 4, 0 4, 0 0))")
	p, ok := NearestPoint(vec.New(2, 6), g)
	if !ok {
		t.Fatal("expected a nearest point")
	}
	if !p.Eq(vec.New(2, 4)) {
		t.Errorf("nearest point = %s, want (2, 4)", p)
	}
}

func TestNearestPointEmptyGeometry(t *testing.T) {
	g := mustWKT(t, "GEOMETRYCOLLECTION EMPTY")
	if _, ok := NearestPoint(vec.New(0, 0), g); ok {
		t.Fatal("expected no nearest point on empty geometry")
	}
}

func TestVisibleBlockedByWall(t *testing.T) {
	wall := NewBoundary(mustWKT(t, "LINESTRING(5 -5, 5 5)"), 0)
	if Visible(vec.New(0, 0), vec.New(10, 0), []*Boundary{wall}) {
		t.Error("line of sight through a wall should be blocked")
	}
	if !Visible(vec.New(0, 0), vec.New(4, 0), []*Boundary{wall}) {
		t.Error("line of sight short of the wall should be free")
	}
}

func TestVisibleBBoxReject(t *testing.T) {
	// wall far away from the sight line: only the bbox test should run
	wall := NewBoundary(mustWKT(t, "LINESTRING(100 100, 110 110)"), 0)
	if !Visible(vec.New(0, 0), vec.New(10, 0), []*Boundary{wall}) {
		t.Error("distant wall should not block sight")
	}
}

func TestSegmentCrossesWall(t *testing.T) {
	wall := mustWKT(t, "LINESTRING(5 -5, 5 5)")
	if !SegmentCrosses(vec.New(0, 0), vec.New(10, 0), wall) {
		t.Error("segment through the wall should cross")
	}
	if SegmentCrosses(vec.New(0, 0), vec.New(4, 0), wall) {
		t.Error("segment short of the wall should not cross")
	}
}

func TestPerpendicularLineGeometry(t *testing.T) {
	gate, err := PerpendicularLine(vec.New(10, 0), vec.New(0, 0), 4)
	if err != nil {
		t.Fatalf("PerpendicularLine: %v", err)
	}
	seq := gate.Coordinates()
	if seq.Length() != 3 {
		t.Fatalf("expected 3 gate points, got %d", seq.Length())
	}
	first := Vec(seq.GetXY(0))
	last := Vec(seq.GetXY(2))
	if math.Abs(first.Distance(last)-8) > vec.Epsilon {
		t.Errorf("gate length = %f, want 8", first.Distance(last))
	}
	// the gate must be perpendicular to the axis, so both ends share x=10
	if math.Abs(first.X-10) > vec.Epsilon || math.Abs(last.X-10) > vec.Epsilon {
		t.Errorf("gate endpoints %s / %s not on x=10", first, last)
	}
}

func TestPerpendicularLineZeroDirection(t *testing.T) {
	if _, err := PerpendicularLine(vec.New(1, 1), vec.New(1, 1), 4); err == nil {
		t.Fatal("expected error for coincident points")
	}
}

func TestRectExpansion(t *testing.T) {
	b := NewBoundary(mustWKT(t, "LINESTRING(0 0, 10 0)"), 2)
	r := b.BBox()
	if r.MinX != -2 || r.MaxX != 12 || r.MinY != -2 || r.MaxY != 2 {
		t.Errorf("unexpected expanded bbox: %+v", r)
	}
	if !r.Contains(vec.New(11, 1)) {
		t.Error("expanded bbox should contain (11, 1)")
	}
	if r.Contains(vec.New(13, 0)) {
		t.Error("expanded bbox should not contain (13, 0)")
	}
}

func TestUnionAllEmptyList(t *testing.T) {
	u, err := UnionAll(nil)
	if err != nil {
		t.Fatalf("UnionAll(nil): %v", err)
	}
	if !u.IsEmpty() {
		t.Error("union of no geometries should be empty")
	}
}

func TestCoords3857From4326(t *testing.T) {
	p := Coords3857From4326(0, 0)
	if math.Abs(p.X) > 1e-6 || math.Abs(p.Y) > 1e-6 {
		t.Errorf("origin should map to origin, got %s", p)
	}
	q := Coords3857From4326(13.4, 52.5)
	if q.X <= 0 || q.Y <= 0 {
		t.Errorf("expected positive metric coordinates, got %s", q)
	}
}
