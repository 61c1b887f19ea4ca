package ring

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/tuneinsight/ringlwe/utils/sampling"
)

const (
	discreteGaussianName = "DiscreteGaussian"
	uniformDistName      = "Uniform"
)

// Sampler is an interface for random polynomial samplers.
// Read takes as argument the polynomial to be populated according to the
// Sampler's distribution.
//
// Samplers hold the state of their random source and are not thread safe.
type Sampler interface {
	Read(pol Poly)
	ReadNew() (pol Poly)
}

// DistributionParameters is an interface for distribution
// parameters in the ring.
// There are two implementations of this interface:
//   - DiscreteGaussian for sampling polynomials with discretized
//     gaussian coefficients of given Gaussian parameter.
//   - Uniform for sampling polynomial with uniformly random
//     coefficients in the ring.
type DistributionParameters interface {
	// Type returns a string representation of the distribution name.
	Type() string
	mustBeDist()
}

// DiscreteGaussian represents the parameters of a discrete Gaussian
// distribution centered at zero, with density proportional to exp(-pi x^2 / Sigma^2).
// The standard deviation of the distribution is Sigma/sqrt(2 pi).
type DiscreteGaussian struct {
	Sigma float64
}

// Uniform represents the parameters of a uniform distribution
// i.e., with coefficients uniformly distributed in the given ring.
type Uniform struct{}

// NewSampler instantiates a new Sampler for the given distribution, drawing its
// randomness from prng.
func NewSampler(prng sampling.PRNG, baseRing *Ring, X DistributionParameters) (Sampler, error) {
	switch X := X.(type) {
	case DiscreteGaussian:
		sampler, err := NewKnuthYaoSampler(prng, baseRing, X)
		if err != nil {
			return nil, err
		}
		return sampler, nil
	case Uniform:
		return NewUniformSampler(prng, baseRing), nil
	default:
		return nil, fmt.Errorf("invalid distribution: want ring.DiscreteGaussian or ring.Uniform but have %T", X)
	}
}

type baseSampler struct {
	prng     sampling.PRNG
	baseRing *Ring
}

// randomBuffer amortizes the calls to the PRNG by reading it in chunks.
type randomBuffer struct {
	randomBufferN []byte
	ptr           int
}

func newRandomBuffer() *randomBuffer {
	return &randomBuffer{
		randomBufferN: make([]byte, 1024),
		ptr:           1024,
	}
}

// uint32 returns the next little-endian word of the buffer, refilling it from prng when it is exhausted.
func (b *randomBuffer) uint32(prng sampling.PRNG) (w uint32) {
	if b.ptr+4 > len(b.randomBufferN) {
		if _, err := prng.Read(b.randomBufferN); err != nil {
			// Sanity check, this error should not happen.
			panic(err)
		}
		b.ptr = 0
	}
	w = binary.LittleEndian.Uint32(b.randomBufferN[b.ptr:])
	b.ptr += 4
	return
}

func (d DiscreteGaussian) Type() string {
	return discreteGaussianName
}

func (d DiscreteGaussian) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string
		Sigma float64
	}{d.Type(), d.Sigma})
}

func (d DiscreteGaussian) mustBeDist() {}

func (d Uniform) Type() string {
	return uniformDistName
}

func (d Uniform) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string
	}{Type: d.Type()})
}

func (d Uniform) mustBeDist() {}
