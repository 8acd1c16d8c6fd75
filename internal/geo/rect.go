package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Rect is an axis-aligned bounding box used for cheap pre-checks on the hot
// path before exact geometry tests.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// RectOf computes the bounding box of a geometry, expanded outward by
// expand on all sides. Returns a degenerate (empty) Rect for empty geometry.
func RectOf(g geom.Geometry, expand float64) Rect {
	env := g.Envelope()
	min, max, ok := env.MinMaxXYs()
	if !ok {
		return Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	}
	return Rect{
		MinX: min.X - expand,
		MinY: min.Y - expand,
		MaxX: max.X + expand,
		MaxY: max.Y + expand,
	}
}

// RectAround computes the bounding box of the segment between two points.
func RectAround(a, b vec.V) Rect {
	return Rect{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// Contains reports whether the point lies inside or on the edge of r.
func (r Rect) Contains(p vec.V) bool {
	return r.MinX <= p.X && p.X <= r.MaxX && r.MinY <= p.Y && p.Y <= r.MaxY
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return !(r.MinX > other.MaxX || r.MaxX < other.MinX ||
		r.MinY > other.MaxY || r.MaxY < other.MinY)
}

// IntersectsSegment reports whether the bounding box of the segment from a
// to b overlaps r.
func (r Rect) IntersectsSegment(a, b vec.V) bool {
	return !(r.MinX > math.Max(a.X, b.X) || r.MaxX < math.Min(a.X, b.X) ||
		r.MinY > math.Max(a.Y, b.Y) || r.MaxY < math.Min(a.Y, b.Y))
}

// IsEmpty reports whether r covers no area at all.
func (r Rect) IsEmpty() bool {
	return r.MinX > r.MaxX || r.MinY > r.MaxY
}

// ExpandToInclude grows r to cover other.
func (r Rect) ExpandToInclude(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, other.MinX),
		MinY: math.Min(r.MinY, other.MinY),
		MaxX: math.Max(r.MaxX, other.MaxX),
		MaxY: math.Max(r.MaxY, other.MaxY),
	}
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxX - r.MinX
}

// Height returns the vertical extent of r.
func (r Rect) Height() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxY - r.MinY
}

// Area returns the covered area of r.
func (r Rect) Area() float64 {
	return r.Width() * r.Height()
}
