package ring

import (
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

// UniformSampler wraps a sampling.PRNG and represents the state of a sampler of uniform polynomials.
type UniformSampler struct {
	*baseSampler
	*randomBuffer
}

// NewUniformSampler creates a new instance of UniformSampler from a PRNG and ring definition.
func NewUniformSampler(prng sampling.PRNG, baseRing *Ring) (u *UniformSampler) {
	u = new(UniformSampler)
	u.baseSampler = &baseSampler{}
	u.baseRing = baseRing
	u.prng = prng
	u.randomBuffer = newRandomBuffer()
	return
}

// Read samples a polynomial with coefficients uniformly distributed in [0, q-1].
//
// Candidates are 16-bit, two per 32-bit word starting with the low half,
// masked to the bit-length of q and rejected when not below q.
func (u *UniformSampler) Read(pol Poly) {

	q := u.baseRing.Modulus()
	mask := u.baseRing.Mask()
	coeffs := pol.Coeffs[:u.baseRing.N()]

	var word uint32
	var halves int

	for i := range coeffs {
		for {
			if halves == 0 {
				word = u.uint32(u.prng)
				halves = 2
			}

			candidate := word & mask
			word >>= 16
			halves--

			if candidate < q {
				coeffs[i] = candidate
				break
			}
		}
	}
}

// ReadNew generates a new polynomial with coefficients following a uniform distribution over [0, q-1].
func (u *UniformSampler) ReadNew() (pol Poly) {
	pol = u.baseRing.NewPoly()
	u.Read(pol)
	return
}
