package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Reproject3857From4326 rebuilds a geometry with every vertex transformed
// from EPSG:4326 longitude/latitude into metric EPSG:3857 coordinates.
// Supported types: Point, LineString, Polygon, MultiPolygon.
func Reproject3857From4326(g geom.Geometry) (geom.Geometry, error) {
	f := wgs84.EPSG().Transform(4326, 3857)
	tx := func(xy geom.XY) geom.XY {
		x, y, _ := f(xy.X, xy.Y, 0)
		return geom.XY{X: x, Y: y}
	}

	switch g.Type() {
	case geom.TypePoint:
		xy, ok := g.MustAsPoint().XY()
		if !ok {
			return geom.Geometry{}, fmt.Errorf("empty point: %w", ErrInvalidGeometry)
		}
		p := tx(xy)
		return Point(vec.V{X: p.X, Y: p.Y}).AsGeometry(), nil
	case geom.TypeLineString:
		return reprojectLine(g.MustAsLineString(), tx).AsGeometry(), nil
	case geom.TypePolygon:
		return reprojectPolygon(g.MustAsPolygon(), tx).AsGeometry(), nil
	case geom.TypeMultiPolygon:
		mp := g.MustAsMultiPolygon()
		polys := make([]geom.Polygon, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			polys[i] = reprojectPolygon(mp.PolygonN(i), tx)
		}
		return geom.NewMultiPolygon(polys).AsGeometry(), nil
	default:
		return geom.Geometry{}, fmt.Errorf("unsupported geometry type %s: %w", g.Type(), ErrInvalidGeometry)
	}
}

func reprojectLine(ls geom.LineString, tx func(geom.XY) geom.XY) geom.LineString {
	seq := ls.Coordinates()
	flat := make([]float64, 0, seq.Length()*2)
	for i := 0; i < seq.Length(); i++ {
		p := tx(seq.GetXY(i))
		flat = append(flat, p.X, p.Y)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}

func reprojectPolygon(p geom.Polygon, tx func(geom.XY) geom.XY) geom.Polygon {
	rings := make([]geom.LineString, 0, p.NumInteriorRings()+1)
	rings = append(rings, reprojectLine(p.ExteriorRing(), tx))
	for i := 0; i < p.NumInteriorRings(); i++ {
		rings = append(rings, reprojectLine(p.InteriorRingN(i), tx))
	}
	return geom.NewPolygon(rings)
}
