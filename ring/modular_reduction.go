package ring

import (
	"math"
	"math/bits"
)

// Reduce returns x mod q in [0, q-1] for any signed x.
// The truncated remainder of a negative x is compensated by adding q.
func Reduce(x int64, q uint32) uint32 {
	r := x % int64(q)
	if r < 0 {
		r += int64(q)
	}
	return uint32(r)
}

// CRed reduce returns a mod q where a is between 0 and 2*q-1.
func CRed(a, q uint32) uint32 {
	if a >= q {
		return a - q
	}
	return a
}

//========================
//=== BARRETT REDUCTION ===
//========================

// BRedConstant computes the constant floor(2^64/q) required for BRed.
func BRedConstant(q uint32) uint64 {
	// q is odd, so floor((2^64-1)/q) = floor(2^64/q).
	return math.MaxUint64 / uint64(q)
}

// BRedAdd computes a mod q for any 64-bit a.
func BRedAdd(a uint64, q uint32, u uint64) uint32 {
	mhi, _ := bits.Mul64(a, u)
	r := a - mhi*uint64(q)
	// The quotient estimate is off by at most one.
	if r >= uint64(q) {
		r -= uint64(q)
	}
	return uint32(r)
}

// BRed computes x*y mod q. The product is computed on 64 bits.
func BRed(x, y, q uint32, u uint64) uint32 {
	return BRedAdd(uint64(x)*uint64(y), q, u)
}

// ModExp performs the modular exponentiation x^e mod q.
func ModExp(x, e uint64, q uint32) (result uint32) {
	u := BRedConstant(q)
	params := BRedAdd(x, q, u)
	result = 1
	for i := e; i > 0; i >>= 1 {
		if i&1 == 1 {
			result = BRed(result, params, q, u)
		}
		params = BRed(params, params, q, u)
	}
	return
}

// ModInverse returns x^-1 mod q for a prime q.
func ModInverse(x uint64, q uint32) uint32 {
	return ModExp(x, uint64(q)-2, q)
}
