package rlwe

import (
	"fmt"

	"github.com/tuneinsight/ringlwe/ring"
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

// KeyGenerator is a structure that stores the elements required to create new keys,
// as well as a memory buffer for intermediate values.
//
// A KeyGenerator is not safe for concurrent use.
type KeyGenerator struct {
	params          Parameters
	prng            sampling.PRNG
	uniformSampler  ring.Sampler
	gaussianSampler ring.Sampler
	buffQ           [2]ring.Poly
}

// NewKeyGenerator creates a new [KeyGenerator] drawing its randomness from the random
// engine of the parameters. It returns an error wrapping [ErrConfiguration] if the engine
// is not supported or requires caller-provided key material.
func NewKeyGenerator(params Parameters) (*KeyGenerator, error) {

	prng, err := sampling.NewEnginePRNG(params.RandomEngine())
	if err != nil {
		return nil, fmt.Errorf("cannot NewKeyGenerator: %w: %w", ErrConfiguration, err)
	}

	return NewKeyGeneratorWithPRNG(params, prng), nil
}

// NewKeyGeneratorWithPRNG creates a new [KeyGenerator] drawing its randomness from prng.
func NewKeyGeneratorWithPRNG(params Parameters, prng sampling.PRNG) *KeyGenerator {

	uniformSampler, err := ring.NewSampler(prng, params.RingQ(), params.Xa())

	// Sanity check, this error should not happen: the parameters are validated.
	if err != nil {
		panic(fmt.Errorf("cannot NewKeyGeneratorWithPRNG: %w", err))
	}

	gaussianSampler, err := ring.NewSampler(prng, params.RingQ(), params.Xe())

	// Sanity check, this error should not happen: the parameters are validated.
	if err != nil {
		panic(fmt.Errorf("cannot NewKeyGeneratorWithPRNG: %w", err))
	}

	return &KeyGenerator{
		params:          params,
		prng:            prng,
		uniformSampler:  uniformSampler,
		gaussianSampler: gaussianSampler,
		buffQ:           [2]ring.Poly{params.RingQ().NewPoly(), params.RingQ().NewPoly()},
	}
}

// GenKeyPairNew generates a new private and public key pair:
//
//	A  <- Uniform, in the NTT domain
//	R1 <- Gaussian, in the NTT domain
//	R2 <- Gaussian, in the NTT domain
//	P  = R1 - A*R2
//
// R2 is rearranged to natural order.
func (kgen KeyGenerator) GenKeyPairNew() (sk *PrivateKey, pk *PublicKey) {
	sk = NewPrivateKey(kgen.params)
	pk = NewPublicKey(kgen.params)
	kgen.genKeyPair(sk, pk)
	return
}

// GenKeyPair generates a new [KeyPair] holding both keys.
func (kgen KeyGenerator) GenKeyPair() *KeyPair {
	sk, pk := kgen.GenKeyPairNew()
	return &KeyPair{Public: pk, Private: sk}
}

func (kgen KeyGenerator) genKeyPair(sk *PrivateKey, pk *PublicKey) {

	ringQ := kgen.params.RingQ()

	r1, tmp := kgen.buffQ[0], kgen.buffQ[1]
	defer r1.Zero()
	defer tmp.Zero()

	kgen.uniformSampler.Read(pk.A)
	ringQ.NTT(pk.A, pk.A)

	kgen.gaussianSampler.Read(r1)
	kgen.gaussianSampler.Read(sk.R2)
	ringQ.NTT(r1, r1)
	ringQ.NTT(sk.R2, sk.R2)

	ringQ.MulCoeffs(pk.A, sk.R2, tmp)
	ringQ.Sub(r1, tmp, pk.P)

	ringQ.Rearrange(sk.R2)
}
