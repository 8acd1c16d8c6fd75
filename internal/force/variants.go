package force

// The two shipped parameterizations of the interaction law. Constants are
// the published calibrations; the pedestrian body radius is shared.

const pedestrianRadius = 0.3

// NewBuzna returns the isotropic parameterization (Helbing, Buzna et al.
// 2005): pure exponential repulsion without front/back weighting.
func NewBuzna() *Helbing {
	return New(Params{
		Name:           "buzna",
		PedA2:          3.0,
		PedB2:          0.2,
		BoundaryA2:     5.0,
		BoundaryB2:     0.1,
		Lambda:         1.0,
		RelaxationTime: 0.5,
		Radius:         pedestrianRadius,
	})
}

// NewJohansson returns the anisotropic parameterization (Johansson, Helbing
// et al. 2007): pedestrians ahead repel more strongly than those behind.
func NewJohansson() *Helbing {
	return New(Params{
		Name:           "johansson",
		PedA1:          0.33,
		PedB1:          0.55,
		BoundaryA2:     5.0,
		BoundaryB2:     0.1,
		Lambda:         0.06,
		RelaxationTime: 0.6,
		Radius:         pedestrianRadius,
	})
}
