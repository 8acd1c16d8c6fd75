// Package force implements the social-force interaction law driving
// pedestrian movement: an intrinsic drive toward the desired velocity plus
// exponential repulsion from nearby pedestrians and obstacles.
package force

import (
	"fmt"
	"math"
	"strings"

	"github.com/geo-mart/ABPedSim/internal/geo"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// negligibleForce is the magnitude below which a repulsive interaction is
// treated as zero. The maximum interaction distances are solved from the
// exponential law at this threshold.
const negligibleForce = 0.01

// Model computes the forces acting on a pedestrian. Implementations are
// pure: they read positions and velocities and return force vectors.
type Model interface {
	// IntrinsicForce pulls the current velocity toward the desired velocity
	// along direction. avgVelocity is the pedestrian's average speed on its
	// route so far; lagging behind raises the desired speed up to maxVelocity.
	IntrinsicForce(velocity, direction vec.V, avgVelocity, desiredVelocity, maxVelocity float64) vec.V

	// PedestrianInteraction returns the repulsive force exerted on the
	// pedestrian at position (heading along direction) by another pedestrian.
	PedestrianInteraction(position, direction, otherPosition vec.V) vec.V

	// BoundaryInteraction returns the repulsive force exerted on the
	// pedestrian at position by an obstacle.
	BoundaryInteraction(position, direction vec.V, boundary *geo.Boundary) vec.V

	// PedestrianRadius is the body radius used in the interaction law.
	PedestrianRadius() float64

	// MaxPedestrianInteractionDistance is the separation beyond which
	// pedestrian interaction is exactly zero.
	MaxPedestrianInteractionDistance() float64

	// MaxBoundaryInteractionDistance is the distance beyond which boundary
	// interaction is exactly zero.
	MaxBoundaryInteractionDistance() float64
}

// Params is one parameterization of the Helbing interaction law. The
// anisotropic term (A1, B1, Lambda) weights entities ahead more strongly
// than entities behind; an A1 of zero disables it.
type Params struct {
	Name string

	// pedestrian-pedestrian interaction
	PedA1, PedB1 float64
	PedA2, PedB2 float64

	// pedestrian-boundary interaction
	BoundaryA1, BoundaryB1 float64
	BoundaryA2, BoundaryB2 float64

	Lambda         float64
	RelaxationTime float64
	Radius         float64
}

// cutoff solves the exponential law A*exp((radius-d)/B) = negligibleForce
// for d, taking the parameters of whichever exponential term is active.
func cutoff(radius, a1, b1, a2, b2 float64) float64 {
	switch {
	case a2 > 0 && b2 > 0:
		return radius - b2*math.Log(negligibleForce/a2)
	case a1 > 0 && b1 > 0:
		return radius - b1*math.Log(negligibleForce/a1)
	}
	return 0
}

// ByName returns the force model registered under the given variant name.
func ByName(name string) (Model, error) {
	switch strings.ToLower(name) {
	case "buzna", "helbing-buzna", "isotropic":
		return NewBuzna(), nil
	case "johansson", "helbing-johansson", "anisotropic":
		return NewJohansson(), nil
	}
	return nil, fmt.Errorf("unknown force model variant %q", name)
}
