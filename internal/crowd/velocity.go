package crowd

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// VelocityDistribution holds the Gaussian parameters the desired walking
// speeds are drawn from, in m/s.
type VelocityDistribution struct {
	NormalMean    float64
	NormalStdDev  float64
	MaximumMean   float64
	MaximumStdDev float64
}

// DefaultVelocityDistribution returns the calibrated walking speed
// parameters: a normal desired speed of 1.2 m/s and a maximum 30 % above
// it, both with a 0.3 m/s spread.
func DefaultVelocityDistribution() VelocityDistribution {
	return VelocityDistribution{
		NormalMean:    1.2,
		NormalStdDev:  0.3,
		MaximumMean:   1.56,
		MaximumStdDev: 0.3,
	}
}

// clampSigma truncates samples at 1.96 standard deviations, so 95 % of the
// untruncated distribution is kept and outliers cannot produce implausible
// walkers.
const clampSigma = 1.96

type sampler struct {
	dist    VelocityDistribution
	seed    uint64
	normal  distuv.Normal
	maximum distuv.Normal
}

func newSampler(dist VelocityDistribution, seed uint64) *sampler {
	src := rand.NewPCG(seed, seed)
	return &sampler{
		dist: dist,
		seed: seed,
		normal: distuv.Normal{
			Mu:    dist.NormalMean,
			Sigma: dist.NormalStdDev,
			Src:   src,
		},
		maximum: distuv.Normal{
			Mu:    dist.MaximumMean,
			Sigma: dist.MaximumStdDev,
			Src:   src,
		},
	}
}

// sample draws one desired speed pair. The maximum is never below the
// normal speed.
func (s *sampler) sample() (normal, maximum float64) {
	normal = clamp(s.normal.Rand(), s.dist.NormalMean, s.dist.NormalStdDev)
	maximum = clamp(s.maximum.Rand(), s.dist.MaximumMean, s.dist.MaximumStdDev)
	if maximum < normal {
		maximum = normal
	}
	return normal, maximum
}

func clamp(x, mu, sigma float64) float64 {
	lo, hi := mu-clampSigma*sigma, mu+clampSigma*sigma
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
