package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// ClosestPointOnSegment returns the point on the segment from a to b that is
// nearest to p.
func ClosestPointOnSegment(p, a, b vec.V) vec.V {
	ab := b.Sub(a)
	lenSq := ab.LengthSquared()
	if lenSq < vec.Epsilon {
		return a
	}
	t := p.Sub(a).Dot(ab) / lenSq
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	return a.Add(ab.Scale(t))
}

// NearestPoint returns the point on g nearest to p. The second return value
// is false when g is empty.
func NearestPoint(p vec.V, g geom.Geometry) (vec.V, bool) {
	best := vec.V{}
	bestDistSq := -1.0
	consider := func(candidate vec.V) {
		dSq := candidate.DistanceSquared(p)
		if bestDistSq < 0 || dSq < bestDistSq {
			bestDistSq = dSq
			best = candidate
		}
	}

	for _, seq := range Sequences(g) {
		n := seq.Length()
		if n == 0 {
			continue
		}
		if n == 1 {
			consider(Vec(seq.GetXY(0)))
			continue
		}
		for i := 0; i < n-1; i++ {
			a := Vec(seq.GetXY(i))
			b := Vec(seq.GetXY(i + 1))
			consider(ClosestPointOnSegment(p, a, b))
		}
	}

	if bestDistSq < 0 {
		return vec.V{}, false
	}
	return best, true
}

// Sequences decomposes a geometry into the coordinate sequences of its
// linear parts. Polygons contribute all their rings; points contribute a
// single-coordinate sequence.
func Sequences(g geom.Geometry) []geom.Sequence {
	switch g.Type() {
	case geom.TypePoint:
		pt := g.MustAsPoint()
		xy, ok := pt.XY()
		if !ok {
			return nil
		}
		return []geom.Sequence{geom.NewSequence([]float64{xy.X, xy.Y}, geom.DimXY)}
	case geom.TypeLineString:
		return []geom.Sequence{g.MustAsLineString().Coordinates()}
	case geom.TypePolygon:
		return polygonSequences(g.MustAsPolygon())
	case geom.TypeMultiPoint:
		mp := g.MustAsMultiPoint()
		var seqs []geom.Sequence
		for i := 0; i < mp.NumPoints(); i++ {
			seqs = append(seqs, Sequences(mp.PointN(i).AsGeometry())...)
		}
		return seqs
	case geom.TypeMultiLineString:
		mls := g.MustAsMultiLineString()
		seqs := make([]geom.Sequence, 0, mls.NumLineStrings())
		for i := 0; i < mls.NumLineStrings(); i++ {
			seqs = append(seqs, mls.LineStringN(i).Coordinates())
		}
		return seqs
	case geom.TypeMultiPolygon:
		mp := g.MustAsMultiPolygon()
		var seqs []geom.Sequence
		for i := 0; i < mp.NumPolygons(); i++ {
			seqs = append(seqs, polygonSequences(mp.PolygonN(i))...)
		}
		return seqs
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		var seqs []geom.Sequence
		for i := 0; i < gc.NumGeometries(); i++ {
			seqs = append(seqs, Sequences(gc.GeometryN(i))...)
		}
		return seqs
	}
	return nil
}

func polygonSequences(p geom.Polygon) []geom.Sequence {
	seqs := []geom.Sequence{p.ExteriorRing().Coordinates()}
	for i := 0; i < p.NumInteriorRings(); i++ {
		seqs = append(seqs, p.InteriorRingN(i).Coordinates())
	}
	return seqs
}
