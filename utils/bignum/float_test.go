package bignum

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	testFunc1("Exp", 1.4142135623730951, math.Exp, Exp, 1e-15, t)

	t.Run("GaussianWeight", func(t *testing.T) {
		for _, s := range []float64{11.31, 12.18} {
			for _, x := range []int{0, 1, 5, 20} {
				y, _ := GaussianWeight(x, s, 128).Float64()
				require.InDelta(t, math.Exp(-math.Pi*float64(x*x)/(s*s)), y, 1e-15)
			}
		}
	})

	t.Run("FractionalBits", func(t *testing.T) {
		bits, err := FractionalBits(NewFloat(0.8125, 64), 6)
		require.NoError(t, err)
		require.Equal(t, []uint8{1, 1, 0, 1, 0, 0}, bits)

		_, err = FractionalBits(NewFloat(1, 64), 6)
		require.Error(t, err)

		_, err = FractionalBits(NewFloat(-0.5, 64), 6)
		require.Error(t, err)
	})

	t.Run("Pi", func(t *testing.T) {
		y, _ := Pi(256).Float64()
		require.Equal(t, math.Pi, y)
	})
}

func testFunc1(name string, x float64, f func(x float64) (y float64), g func(x *big.Float) (y *big.Float), delta float64, t *testing.T) {
	t.Run(name, func(t *testing.T) {
		y, _ := g(NewFloat(x, 53)).Float64()
		require.InDelta(t, f(x), y, delta)
	})
}
