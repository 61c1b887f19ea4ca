package ring

import (
	"fmt"
	"math/big"
)

// IsPrime applies the Baillie-PSW, which is 100% accurate for numbers bellow 2^64.
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(0)
}

// IsNTTFriendly returns true if q is a prime congruent to 1 modulo 2N,
// i.e. if Z_q[X]/(X^N+1) admits a negacyclic NTT.
func IsNTTFriendly(q uint32, N int) bool {
	return IsPrime(uint64(q)) && (uint64(q)-1)%uint64(2*N) == 0
}

// primeFactors returns the distinct prime factors of m by trial division.
func primeFactors(m uint64) (factors []uint64) {
	for p := uint64(2); p*p <= m; p++ {
		if m%p == 0 {
			factors = append(factors, p)
			for m%p == 0 {
				m /= p
			}
		}
	}
	if m > 1 {
		factors = append(factors, m)
	}
	return
}

// PrimitiveRoot returns the smallest generator of the multiplicative group of Z_q and
// the distinct prime factors of q-1.
func PrimitiveRoot(q uint32) (g uint64, factors []uint64, err error) {

	if !IsPrime(uint64(q)) {
		return 0, nil, fmt.Errorf("cannot PrimitiveRoot: %d is not prime", q)
	}

	factors = primeFactors(uint64(q) - 1)

	for g = 2; g < uint64(q); g++ {
		found := true
		for _, factor := range factors {
			// if for any factor of q-1, g^(q-1)/factor = 1 mod q, g is not a primitive root
			if ModExp(g, (uint64(q)-1)/factor, q) == 1 {
				found = false
				break
			}
		}
		if found {
			return g, factors, nil
		}
	}

	return 0, nil, fmt.Errorf("cannot PrimitiveRoot: no generator found for %d", q)
}

// PrimitiveNthRoot returns a primitive NthRoot-th root of unity modulo q.
func PrimitiveNthRoot(q uint32, NthRoot int) (root uint32, err error) {

	if NthRoot <= 0 || (uint64(q)-1)%uint64(NthRoot) != 0 {
		return 0, fmt.Errorf("cannot PrimitiveNthRoot: %d does not divide q-1=%d", NthRoot, q-1)
	}

	g, _, err := PrimitiveRoot(q)
	if err != nil {
		return 0, fmt.Errorf("cannot PrimitiveNthRoot: %w", err)
	}

	return ModExp(g, (uint64(q)-1)/uint64(NthRoot), q), nil
}
