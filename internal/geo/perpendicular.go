package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// PerpendicularLine builds the line segment through at, perpendicular to
// the direction from at toward toward, extending halfLength to each side.
func PerpendicularLine(at, toward vec.V, halfLength float64) (geom.LineString, error) {
	direction := toward.Sub(at).Normalize()
	if direction.IsZero() {
		return geom.LineString{}, fmt.Errorf("perpendicular line at %s: zero direction: %w", at, ErrInvalidGeometry)
	}
	// rotate the unit direction a quarter circle each way
	left := at.Add(vec.V{X: -direction.Y, Y: direction.X}.Scale(halfLength))
	right := at.Add(vec.V{X: direction.Y, Y: -direction.X}.Scale(halfLength))
	return Line(left, at, right)
}

// ClipAway removes the parts of a line that overlap the given obstacle
// union. The result may be a multi-part geometry, or empty when the line is
// fully covered.
func ClipAway(line geom.LineString, obstacles geom.Geometry) (geom.Geometry, error) {
	if obstacles.IsEmpty() {
		return line.AsGeometry(), nil
	}
	clipped, err := geom.Difference(line.AsGeometry(), obstacles)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("failed to clip line against obstacles: %w", err)
	}
	return clipped, nil
}
