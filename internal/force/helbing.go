package force

import (
	"math"

	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Helbing evaluates the Helbing interaction law for one parameter set.
type Helbing struct {
	params Params

	maxPedDistance      float64
	maxPedDistanceSq    float64
	maxBoundaryDistance float64
}

// New builds a model from an explicit parameter set. The maximum
// interaction distances are derived from the parameters once, up front.
func New(params Params) *Helbing {
	// pedestrian bodies repel from twice the radius, obstacles from one
	maxPed := cutoff(2*params.Radius, params.PedA1, params.PedB1, params.PedA2, params.PedB2)
	maxBoundary := cutoff(params.Radius, params.BoundaryA1, params.BoundaryB1, params.BoundaryA2, params.BoundaryB2)
	return &Helbing{
		params:              params,
		maxPedDistance:      maxPed,
		maxPedDistanceSq:    maxPed * maxPed,
		maxBoundaryDistance: maxBoundary,
	}
}

// Params returns the parameter set this model was built from.
func (h *Helbing) Params() Params {
	return h.params
}

// IntrinsicForce implements Model. The desired speed compensates for past
// delay: a pedestrian that has fallen behind its normal speed drives toward
// a proportionally higher speed, up to maxVelocity.
func (h *Helbing) IntrinsicForce(velocity, direction vec.V, avgVelocity, desiredVelocity, maxVelocity float64) vec.V {
	currentDesired := 0.0
	if desiredVelocity > vec.Epsilon {
		currentDesired = avgVelocity + (1-avgVelocity/desiredVelocity)*maxVelocity
	}
	return direction.Scale(currentDesired).Sub(velocity).Scale(1 / h.params.RelaxationTime)
}

// PedestrianInteraction implements Model.
func (h *Helbing) PedestrianInteraction(position, direction, otherPosition vec.V) vec.V {
	// axis-aligned quick reject before the exact distance test
	if math.Abs(position.X-otherPosition.X) > h.maxPedDistance ||
		math.Abs(position.Y-otherPosition.Y) > h.maxPedDistance {
		return vec.V{}
	}
	if position.DistanceSquared(otherPosition) > h.maxPedDistanceSq {
		return vec.V{}
	}
	return h.interact(position, direction, otherPosition, 2*h.params.Radius,
		h.params.PedA1, h.params.PedB1, h.params.PedA2, h.params.PedB2)
}

// BoundaryInteraction implements Model.
func (h *Helbing) BoundaryInteraction(position, direction vec.V, boundary *geo.Boundary) vec.V {
	if !boundary.BBox().Contains(position) {
		return vec.V{}
	}
	nearest, ok := geo.NearestPoint(position, boundary.Geometry())
	if !ok {
		return vec.V{}
	}
	if position.Distance(nearest) > h.maxBoundaryDistance {
		return vec.V{}
	}
	return h.interact(position, direction, nearest, h.params.Radius,
		h.params.BoundaryA1, h.params.BoundaryB1, h.params.BoundaryA2, h.params.BoundaryB2)
}

// interact evaluates the repulsion exerted on the pedestrian at position by
// an entity at otherPosition: an isotropic exponential term plus, when A1 is
// nonzero, an anisotropic term weighting entities ahead more strongly.
func (h *Helbing) interact(position, direction, otherPosition vec.V, radius, a1, b1, a2, b2 float64) vec.V {
	delta := position.Sub(otherPosition)
	distance := delta.Length()
	if distance < vec.Epsilon {
		// coincident positions: substitute a minimal nonzero distance
		// instead of dividing by zero
		distance = math.SmallestNonzeroFloat64
		delta = vec.V{X: distance}
	}
	normal := delta.Scale(1 / distance)

	var f vec.V
	if a2 != 0 {
		f = normal.Scale(a2 * math.Exp((radius-distance)/b2))
	}
	if a1 != 0 {
		cosPhi := -normal.Dot(direction.Normalize())
		anisotropy := h.params.Lambda + (1-h.params.Lambda)*(1+cosPhi)/2
		f = f.Add(normal.Scale(a1 * math.Exp((radius-distance)/b1) * anisotropy))
	}
	return f
}

// PedestrianRadius implements Model.
func (h *Helbing) PedestrianRadius() float64 {
	return h.params.Radius
}

// MaxPedestrianInteractionDistance implements Model.
func (h *Helbing) MaxPedestrianInteractionDistance() float64 {
	return h.maxPedDistance
}

// MaxBoundaryInteractionDistance implements Model.
func (h *Helbing) MaxBoundaryInteractionDistance() float64 {
	return h.maxBoundaryDistance
}
