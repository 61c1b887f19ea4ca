package ring

import (
	"fmt"
	"math/bits"

	"github.com/tuneinsight/ringlwe/utils/sampling"
)

// KnuthYaoSampler keeps the state of a discrete Gaussian polynomial sampler
// implementing the Knuth-Yao random walk with two lookup tables.
//
// Random bits are consumed from a rolling 32-bit word whose most significant bit
// is a sentinel: the word is refilled when it has fewer bits left than the
// next step requires.
type KnuthYaoSampler struct {
	*baseSampler
	*randomBuffer
	table *KnuthYaoTable
	rnd   uint32
}

// NewKnuthYaoSampler creates a new instance of KnuthYaoSampler from a PRNG, a ring definition
// and the distribution parameters.
func NewKnuthYaoSampler(prng sampling.PRNG, baseRing *Ring, X DiscreteGaussian) (k *KnuthYaoSampler, err error) {

	table, err := GetKnuthYaoTable(X.Sigma)
	if err != nil {
		return nil, fmt.Errorf("cannot NewKnuthYaoSampler: %w", err)
	}

	return &KnuthYaoSampler{
		baseSampler: &baseSampler{
			prng:     prng,
			baseRing: baseRing,
		},
		randomBuffer: newRandomBuffer(),
		table:        table,
	}, nil
}

// Table returns the KnuthYaoTable used by the sampler.
func (k *KnuthYaoSampler) Table() *KnuthYaoTable {
	return k.table
}

// Read samples a polynomial with discrete Gaussian coefficients, reduced modulo q.
func (k *KnuthYaoSampler) Read(pol Poly) {
	q := k.baseRing.Modulus()
	for i := range pol.Coeffs[:k.baseRing.N()] {
		pol.Coeffs[i] = k.readOne(q)
	}
}

// ReadNew samples a new polynomial with discrete Gaussian coefficients.
func (k *KnuthYaoSampler) ReadNew() (pol Poly) {
	pol = k.baseRing.NewPoly()
	k.Read(pol)
	return
}

// ReadOne returns a single sample x in [0, q-1], where negative values are mapped to q-|x|.
func (k *KnuthYaoSampler) ReadOne() uint32 {
	return k.readOne(k.baseRing.Modulus())
}

func (k *KnuthYaoSampler) readOne(q uint32) uint32 {
	return Reduce(k.ReadInt(), q)
}

// ReadInt returns a single signed sample.
func (k *KnuthYaoSampler) ReadInt() int64 {
	x, neg := k.sample()
	if neg {
		return -int64(x)
	}
	return int64(x)
}

func (k *KnuthYaoSampler) refill() {
	k.rnd = k.uint32(k.prng) | 0x80000000
}

// sample draws a magnitude followed by a sign bit. neg is never true for 0.
func (k *KnuthYaoSampler) sample() (x uint32, neg bool) {

	if k.rnd == 0 {
		k.refill()
	}

	x = k.magnitude()

	neg = k.rnd&1 == 1 && x != 0
	k.rnd >>= 1

	if bits.LeadingZeros32(k.rnd) > 31-lut1Columns {
		k.refill()
	}

	return
}

// magnitude runs the walk: the first 8 bits index Lut1, the next 5 index Lut2
// and the remaining columns are scanned one bit at a time.
func (k *KnuthYaoSampler) magnitude() uint32 {

	t := k.table

	smp := t.Lut1[k.rnd&0xff]
	k.rnd >>= lut1Columns

	if smp&0x10 == 0 {
		if k.rnd == 1 {
			k.refill()
		}
		return uint32(smp & 0xf)
	}

	if bits.LeadingZeros32(k.rnd) > 31-lut2Columns {
		k.refill()
	}

	idx := (k.rnd & 0x1f) + uint32(smp&0xf)<<lut2Columns
	k.rnd >>= lut2Columns

	if k.rnd == 1 {
		k.refill()
	}

	smp = t.Lut2[idx]
	if smp&0x20 == 0 {
		return uint32(smp & 0x1f)
	}

	d := int(smp & 0x1f)

	for c := lut1Columns + lut2Columns; c < KnuthYaoColumns; c++ {

		d = 2*d + int(k.rnd&1)
		k.rnd >>= 1

		if k.rnd == 1 {
			k.refill()
		}

		if row := t.scan(c, &d); row >= 0 {
			return uint32(row)
		}
	}

	return 0
}
