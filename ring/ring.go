// Package ring implements the arithmetic of the polynomial ring Z_q[X]/(X^N+1) used
// by the RLWE scheme: modular reduction, number theoretic transform, pointwise operations,
// message encoding and the samplers.
package ring

import (
	"fmt"
	"math/bits"

	"github.com/tuneinsight/ringlwe/utils"
)

// Ring is a structure that keeps all the variables required to operate on polynomials
// of Z_q[X]/(X^N+1), including the NTT constants. A Ring is read-only after creation.
type Ring struct {
	NumberTheoreticTransformer

	n    int
	logN int

	modulus      uint32
	mask         uint32
	bredConstant uint64
}

// NewRing creates a new Ring of degree N and modulus q.
// N must be a power of two and q a prime congruent to 1 mod 2N.
func NewRing(N int, q uint32) (r *Ring, err error) {

	ntt, err := NewNumberTheoreticTransformerStandard(N, q)
	if err != nil {
		return nil, fmt.Errorf("cannot NewRing: %w", err)
	}

	return &Ring{
		NumberTheoreticTransformer: ntt,
		n:                          N,
		logN:                       utils.Log2(uint64(N)),
		modulus:                    q,
		mask:                       (1 << bits.Len32(q)) - 1,
		bredConstant:               BRedConstant(q),
	}, nil
}

// N returns the ring degree.
func (r Ring) N() int {
	return r.n
}

// LogN returns log2(ring degree).
func (r Ring) LogN() int {
	return r.logN
}

// Modulus returns the modulus q of the ring.
func (r Ring) Modulus() uint32 {
	return r.modulus
}

// Mask returns 2^bitlen(q) - 1, the mask used by the uniform sampler.
func (r Ring) Mask() uint32 {
	return r.mask
}

// MaxMessageBytes returns the number of bytes a single polynomial can encode.
func (r Ring) MaxMessageBytes() int {
	return r.n >> 3
}

// NewPoly creates a new polynomial with all coefficients set to 0.
func (r Ring) NewPoly() Poly {
	return NewPoly(r.n)
}

// Equal checks if p1 = p2 in the given Ring.
func (r Ring) Equal(p1, p2 Poly) bool {
	return p1.Equal(&p2)
}

// IsReduced returns true if p1 has N coefficients, all in [0, q-1].
func (r Ring) IsReduced(p1 Poly) bool {
	if p1.N() != r.n {
		return false
	}
	for _, c := range p1.Coeffs {
		if c >= r.modulus {
			return false
		}
	}
	return true
}

// NTT evaluates p2 = NTT(p1).
func (r Ring) NTT(p1, p2 Poly) {
	r.Forward(p1.Coeffs, p2.Coeffs)
}

// INTT evaluates p2 = INTT(p1).
func (r Ring) INTT(p1, p2 Poly) {
	r.Backward(p1.Coeffs, p2.Coeffs)
}

// Rearrange applies in place the bit-reversal permutation of the indexes of p1.
// The permutation is an involution.
func (r Ring) Rearrange(p1 Poly) {
	utils.BitReverseInPlaceSlice(p1.Coeffs, r.n)
}

// Add evaluates p3 = p1 + p2 coefficient-wise in the ring.
func (r Ring) Add(p1, p2, p3 Poly) {
	q := r.modulus
	a, b, c := p1.Coeffs[:r.n], p2.Coeffs[:r.n], p3.Coeffs[:r.n]
	for i := range c {
		c[i] = CRed(a[i]+b[i], q)
	}
}

// Sub evaluates p3 = p1 - p2 coefficient-wise in the ring.
func (r Ring) Sub(p1, p2, p3 Poly) {
	q := r.modulus
	a, b, c := p1.Coeffs[:r.n], p2.Coeffs[:r.n], p3.Coeffs[:r.n]
	for i := range c {
		c[i] = CRed(a[i]+q-b[i], q)
	}
}

// MulCoeffs evaluates p3 = p1 * p2 coefficient-wise in the ring.
// On NTT domain operands this is the ring product.
func (r Ring) MulCoeffs(p1, p2, p3 Poly) {
	q, u := r.modulus, r.bredConstant
	a, b, c := p1.Coeffs[:r.n], p2.Coeffs[:r.n], p3.Coeffs[:r.n]
	for i := range c {
		c[i] = BRed(a[i], b[i], q, u)
	}
}

// MulCoeffsThenAdd evaluates p4 = p1 * p2 + p3 coefficient-wise in the ring.
func (r Ring) MulCoeffsThenAdd(p1, p2, p3, p4 Poly) {
	q, u := r.modulus, r.bredConstant
	a, b, c, d := p1.Coeffs[:r.n], p2.Coeffs[:r.n], p3.Coeffs[:r.n], p4.Coeffs[:r.n]
	for i := range d {
		d[i] = BRedAdd(uint64(a[i])*uint64(b[i])+uint64(c[i]), q, u)
	}
}
