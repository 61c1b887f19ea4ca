// Package utils implements various helper functions.
package utils

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// BitReverse returns the bit-reverse value of the input value, within a context of 2^bitLen.
func BitReverse[T constraints.Unsigned](index T, bitLen int) T {
	if bitLen == 0 {
		return 0
	}
	return T(bits.Reverse64(uint64(index)) >> (64 - bitLen))
}

// IsPowerOfTwo returns true if x is a positive power of two.
func IsPowerOfTwo[T constraints.Integer](x T) bool {
	return x > 0 && x&(x-1) == 0
}

// Log2 returns the base-2 logarithm of x, which must be a power of two.
func Log2[T constraints.Unsigned](x T) int {
	return bits.Len64(uint64(x)) - 1
}

// Zero sets all the elements of s to zero.
// It is used to wipe sensitive buffers before they are released.
func Zero[T constraints.Integer](s []T) {
	for i := range s {
		s[i] = 0
	}
}
