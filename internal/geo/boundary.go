package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"
)

// Boundary is an immutable obstacle. Its bounding box is precomputed and
// expanded by the active force model's maximum boundary interaction
// distance, so a pedestrian outside the box can skip the obstacle entirely.
type Boundary struct {
	geometry geom.Geometry
	bbox     Rect
}

// NewBoundary wraps an obstacle geometry. maxInteractionDistance is the
// distance by which the cached bounding box is expanded on every side.
func NewBoundary(g geom.Geometry, maxInteractionDistance float64) *Boundary {
	return &Boundary{
		geometry: g,
		bbox:     RectOf(g, maxInteractionDistance),
	}
}

// Geometry returns the obstacle geometry.
func (b *Boundary) Geometry() geom.Geometry {
	return b.geometry
}

// BBox returns the pre-expanded bounding box.
func (b *Boundary) BBox() Rect {
	return b.bbox
}

// Geometries extracts the raw geometries from a boundary list.
func Geometries(boundaries []*Boundary) []geom.Geometry {
	gs := make([]geom.Geometry, len(boundaries))
	for i, b := range boundaries {
		gs[i] = b.geometry
	}
	return gs
}
