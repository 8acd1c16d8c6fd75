package geo

import (
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// All scene geometry is carried in EPSG:3857 (meters) so force and distance
// computations work in metric units. Data arriving in EPSG:4326 is
// transformed on load.

// ErrInvalidGeometry is returned when input geometry cannot be parsed or has
// the wrong dimensionality.
var ErrInvalidGeometry = errors.New("invalid geometry provided")

// Point builds a simplefeatures point from a vector.
func Point(v vec.V) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY: geom.XY{X: v.X, Y: v.Y},
	})
}

// XY converts a vector to a simplefeatures XY.
func XY(v vec.V) geom.XY {
	return geom.XY{X: v.X, Y: v.Y}
}

// Vec converts a simplefeatures XY to a vector.
func Vec(xy geom.XY) vec.V {
	return vec.V{X: xy.X, Y: xy.Y}
}

// Segment builds a two-point line string from a to b.
func Segment(a, b vec.V) geom.LineString {
	seq := geom.NewSequence([]float64{a.X, a.Y, b.X, b.Y}, geom.DimXY)
	return geom.NewLineString(seq)
}

// Line builds a line string through the given points, in order.
func Line(points ...vec.V) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("line needs at least 2 points, got %d: %w", len(points), ErrInvalidGeometry)
	}
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY)), nil
}

// ParseWKT parses a WKT string into a geometry.
func ParseWKT(wkt string) (geom.Geometry, error) {
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("failed to parse WKT: %w", err)
	}
	return g, nil
}

// Coords3857From4326 transforms a longitude/latitude pair into metric
// EPSG:3857 coordinates.
func Coords3857From4326(longitude, latitude float64) vec.V {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	return vec.V{X: x, Y: y}
}

// UnionAll folds a list of geometries into their geometric union. An empty
// input yields an empty geometry collection.
func UnionAll(geometries []geom.Geometry) (geom.Geometry, error) {
	if len(geometries) == 0 {
		return geom.NewGeometryCollection(nil).AsGeometry(), nil
	}
	union := geometries[0]
	for _, g := range geometries[1:] {
		var err error
		union, err = geom.Union(union, g)
		if err != nil {
			return geom.Geometry{}, fmt.Errorf("failed to union boundary geometries: %w", err)
		}
	}
	return union, nil
}
