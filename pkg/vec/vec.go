// Package vec provides the 2D vector math used throughout the simulation.
// Vectors are plain values; all operations return new values.
package vec

import (
	"fmt"
	"math"
)

// Epsilon is the precision bound for float64 comparisons.
const Epsilon = 1e-9

// V is a 2D vector or point in cartesian space.
type V struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// New creates a vector from its components.
func New(x, y float64) V {
	return V{X: x, Y: y}
}

// String implements fmt.Stringer.
func (v V) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

// Add returns v + other.
func (v V) Add(other V) V {
	return V{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v V) Sub(other V) V {
	return V{v.X - other.X, v.Y - other.Y}
}

// Scale returns v scaled by s.
func (v V) Scale(s float64) V {
	return V{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and other.
func (v V) Dot(other V) float64 {
	return v.X*other.X + v.Y*other.Y
}

// LengthSquared returns |v|^2. Use for comparisons to avoid the square root.
func (v V) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Length returns |v|.
func (v V) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector in the direction of v, or the zero
// vector if v is effectively zero.
func (v V) Normalize() V {
	l := v.Length()
	if l < Epsilon {
		return V{}
	}
	return v.Scale(1 / l)
}

// IsZero reports whether both components are within Epsilon of zero.
func (v V) IsZero() bool {
	return math.Abs(v.X) <= Epsilon && math.Abs(v.Y) <= Epsilon
}

// IsNaN reports whether either component is NaN.
func (v V) IsNaN() bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y)
}

// Distance returns the Euclidean distance between v and other.
func (v V) Distance(other V) float64 {
	return v.Sub(other).Length()
}

// DistanceSquared returns the squared Euclidean distance between v and other.
func (v V) DistanceSquared(other V) float64 {
	return v.Sub(other).LengthSquared()
}

// Angle returns the direction of v in radians, normalized to [0, 2*pi).
func (v V) Angle() float64 {
	return math.Mod(math.Atan2(v.Y, v.X)+2*math.Pi, 2*math.Pi)
}

// Rotate rotates v by angle radians around the origin.
func (v V) Rotate(angle float64) V {
	sin, cos := math.Sincos(angle)
	return V{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Lerp returns the point a fraction t along the segment from v to target.
func (v V) Lerp(target V, t float64) V {
	return v.Add(target.Sub(v).Scale(t))
}

// Eq reports whether v and other are equal within Epsilon per component.
func (v V) Eq(other V) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}
