package geo

import (
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
)

func TestReprojectPoint(t *testing.T) {
	g := mustWKT(t, "POINT(0 0)")
	out, err := Reproject3857From4326(g)
	if err != nil {
		t.Fatalf("Reproject3857From4326: %v", err)
	}
	xy, ok := out.MustAsPoint().XY()
	if !ok {
		t.Fatal("expected non-empty point")
	}
	if math.Abs(xy.X) > 1e-6 || math.Abs(xy.Y) > 1e-6 {
		t.Errorf("origin should map to origin, got (%f, %f)", xy.X, xy.Y)
	}
}

func TestReprojectPolygonVertices(t *testing.T) {
	g := mustWKT(t, "POLYGON((9.99 53.55, 10.00 53.55, 10.00 53.56, 9.99 53.55))")
	out, err := Reproject3857From4326(g)
	if err != nil {
		t.Fatalf("Reproject3857From4326: %v", err)
	}
	if out.Type() != geom.TypePolygon {
		t.Fatalf("expected polygon, got %s", out.Type())
	}
	seq := out.MustAsPolygon().ExteriorRing().Coordinates()
	// Hamburg longitudes land around 1.1e6 meters east in the 3857 plane.
	first := seq.GetXY(0)
	if first.X < 1.0e6 || first.X > 1.2e6 {
		t.Errorf("unexpected easting %f", first.X)
	}
	if first.Y < 7.0e6 || first.Y > 7.2e6 {
		t.Errorf("unexpected northing %f", first.Y)
	}
}

func TestReprojectUnsupportedType(t *testing.T) {
	g := mustWKT(t, "GEOMETRYCOLLECTION(POINT(1 2))")
	_, err := Reproject3857From4326(g)
	if err == nil {
		t.Fatal("expected error for unsupported geometry type")
	}
}
