// Package bignum implements arbitrary precision arithmetic helpers on top of math/big.
package bignum

import (
	"fmt"
	"math/big"

	"github.com/ALTree/bigfloat"
)

const pi = "3.14159265358979323846264338327950288419716939937510582097494459230781640628620899862803482534211706798214808651328230664709384460955058223172535940812848111745028410270193852110555964462294895493038196"

// Pi returns Pi with prec bits of precision.
func Pi(prec uint) *big.Float {
	pi, _ := new(big.Float).SetPrec(prec).SetString(pi)
	return pi
}

// NewFloat creates a new big.Float element with "prec" bits of precision.
// Valid types for x are: int, int64, uint, uint64, float64, *big.Int or *big.Float.
func NewFloat(x interface{}, prec uint) (y *big.Float) {

	y = new(big.Float)
	y.SetPrec(prec)

	if x == nil {
		return
	}

	switch x := x.(type) {
	case int:
		y.SetInt64(int64(x))
	case int64:
		y.SetInt64(x)
	case uint:
		y.SetUint64(uint64(x))
	case uint64:
		y.SetUint64(x)
	case float64:
		y.SetFloat64(x)
	case *big.Int:
		y.SetInt(x)
	case *big.Float:
		y.Set(x)
	default:
		panic(fmt.Errorf("invalid x.(type): valid types are int, int64, uint, uint64, float64, *big.Int or *big.Float but is %T", x))
	}

	return
}

// Exp returns exp(x) with the precision of x.
func Exp(x *big.Float) (exp *big.Float) {
	return bigfloat.Exp(x)
}

// GaussianWeight returns exp(-pi * x^2 / s^2) with prec bits of precision.
func GaussianWeight(x int, s float64, prec uint) (rho *big.Float) {

	if x == 0 {
		return NewFloat(1, prec)
	}

	// exp(-t) is evaluated as 1/exp(t) so that the exponential
	// only ever sees positive arguments.
	t := NewFloat(x*x, prec)
	t.Mul(t, Pi(prec))
	s2 := NewFloat(s, prec)
	s2.Mul(s2, s2)
	t.Quo(t, s2)

	rho = NewFloat(1, prec)
	return rho.Quo(rho, Exp(t))
}

// FractionalBits returns the first n bits of the binary expansion of x,
// which must be in [0, 1). bits[0] is the weight 2^-1 bit.
func FractionalBits(x *big.Float, n int) (bits []uint8, err error) {

	one := NewFloat(1, x.Prec())

	if x.Sign() < 0 || x.Cmp(one) >= 0 {
		return nil, fmt.Errorf("cannot FractionalBits: x=%s is not in [0, 1)", x.Text('g', 10))
	}

	v := new(big.Float).Copy(x)
	bits = make([]uint8, n)

	for i := 0; i < n; i++ {
		v.Add(v, v)
		if v.Cmp(one) >= 0 {
			bits[i] = 1
			v.Sub(v, one)
		}
	}

	return
}
