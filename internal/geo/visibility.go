package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Visible reports whether the straight line of sight from start to target is
// free of every boundary. Each boundary gets a bounding-box reject before
// the exact intersection test.
func Visible(start, target vec.V, boundaries []*Boundary) bool {
	var sight geom.Geometry
	for _, b := range boundaries {
		if !b.bbox.IntersectsSegment(start, target) {
			continue
		}
		if sight.IsEmpty() {
			sight = Segment(start, target).AsGeometry()
		}
		if geom.Intersects(sight, b.geometry) {
			return false
		}
	}
	return true
}

// SegmentCrosses reports whether the segment from a to b crosses the given
// geometry. Used for move validation: a move whose segment crosses an
// obstacle must be rejected.
func SegmentCrosses(a, b vec.V, g geom.Geometry) bool {
	seg := Segment(a, b).AsGeometry()
	crossed, err := geom.Crosses(seg, g)
	if err != nil {
		// Crosses is undefined for some operand combinations; fall back to
		// the stricter intersection test.
		return geom.Intersects(seg, g)
	}
	return crossed
}

// SegmentIntersects reports whether the segment from a to b touches or
// crosses the given geometry. Used for gate passing detection, where
// touching the gate line counts.
func SegmentIntersects(a, b vec.V, g geom.Geometry) bool {
	return geom.Intersects(Segment(a, b).AsGeometry(), g)
}
