package ring

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/tuneinsight/ringlwe/utils/bignum"
)

const (
	// KnuthYaoRows is the number of rows of the probability matrix,
	// i.e. the samples magnitude lies in [0, KnuthYaoRows-1].
	KnuthYaoRows = 55
	// KnuthYaoColumns is the number of bits of precision of each probability.
	KnuthYaoColumns = 109

	// knuthYaoPrec is the precision, in bits, of the computation of the probabilities.
	knuthYaoPrec = 256

	lut1Columns = 8
	lut2Columns = 5
)

// KnuthYaoTable stores the probability matrix of the discrete Gaussian
// distribution and the two lookup tables that shortcut the first
// lut1Columns+lut2Columns levels of the Knuth-Yao walk.
//
// Row 0 holds p(0) = rho(0)/S and row x > 0 holds p(x) = 2 rho(x)/S,
// where rho(x) = exp(-pi x^2/s^2) and S = rho(0) + 2 sum_{x>0} rho(x).
// Column c holds the bits of weight 2^-(c+1).
type KnuthYaoTable struct {
	Sigma float64

	// Columns[c] has bit r set if bit c of p(r) is 1.
	Columns [KnuthYaoColumns]uint64

	// Lut1[idx] is either a magnitude (< 16) or 0x10|d where d is the distance
	// reached after walking the first 8 columns with the bits of idx, least significant first.
	Lut1 [1 << lut1Columns]uint8

	// Lut2[idx + 32*d] is either a magnitude (< 32) or 0x20|d', continuing a walk
	// left at distance d for the next 5 columns with the bits of idx.
	Lut2 []uint8

	// MaxDistance1 is the largest distance left by Lut1.
	MaxDistance1 int
}

var knuthYaoTables = struct {
	sync.Mutex
	m map[float64]*KnuthYaoTable
}{m: map[float64]*KnuthYaoTable{}}

// GetKnuthYaoTable returns the KnuthYaoTable for the Gaussian parameter sigma.
// Tables are computed once per sigma and cached; the returned table must not be modified.
func GetKnuthYaoTable(sigma float64) (table *KnuthYaoTable, err error) {

	knuthYaoTables.Lock()
	defer knuthYaoTables.Unlock()

	if table, ok := knuthYaoTables.m[sigma]; ok {
		return table, nil
	}

	if table, err = NewKnuthYaoTable(sigma); err != nil {
		return nil, err
	}

	knuthYaoTables.m[sigma] = table

	return
}

// NewKnuthYaoTable computes the probability matrix and lookup tables for the
// discrete Gaussian of parameter sigma.
func NewKnuthYaoTable(sigma float64) (table *KnuthYaoTable, err error) {

	if !(sigma > 0) {
		return nil, fmt.Errorf("cannot NewKnuthYaoTable: sigma=%f must be positive", sigma)
	}

	weights := make([]*big.Float, KnuthYaoRows)
	sum := new(big.Float).SetPrec(knuthYaoPrec)
	for x := range weights {
		weights[x] = bignum.GaussianWeight(x, sigma, knuthYaoPrec)
		if x != 0 {
			weights[x].Add(weights[x], weights[x])
		}
		sum.Add(sum, weights[x])
	}

	table = &KnuthYaoTable{Sigma: sigma}

	for row, w := range weights {

		bits, err := bignum.FractionalBits(w.Quo(w, sum), KnuthYaoColumns)
		if err != nil {
			return nil, fmt.Errorf("cannot NewKnuthYaoTable: row %d: %w", row, err)
		}

		for c, b := range bits {
			table.Columns[c] |= uint64(b) << row
		}
	}

	// First lookup table.
	for idx := range table.Lut1 {

		row, d := table.walk(0, 0, lut1Columns, uint32(idx))

		if row >= 0 {
			if row >= 16 {
				return nil, fmt.Errorf("cannot NewKnuthYaoTable: sigma=%f yields a first lookup table magnitude %d >= 16", sigma, row)
			}
			table.Lut1[idx] = uint8(row)
			continue
		}

		if d >= 16 {
			return nil, fmt.Errorf("cannot NewKnuthYaoTable: sigma=%f yields a first lookup table distance %d >= 16", sigma, d)
		}

		table.Lut1[idx] = 0x10 | uint8(d)
		table.MaxDistance1 = max(table.MaxDistance1, d)
	}

	// Second lookup table, indexed by the distance left by the first one.
	table.Lut2 = make([]uint8, (1<<lut2Columns)*(table.MaxDistance1+1))
	for d1 := 0; d1 <= table.MaxDistance1; d1++ {
		for idx := 0; idx < 1<<lut2Columns; idx++ {

			row, d := table.walk(d1, lut1Columns, lut2Columns, uint32(idx))

			if row >= 0 {
				if row >= 32 {
					return nil, fmt.Errorf("cannot NewKnuthYaoTable: sigma=%f yields a second lookup table magnitude %d >= 32", sigma, row)
				}
				table.Lut2[idx+(d1<<lut2Columns)] = uint8(row)
				continue
			}

			if d >= 32 {
				return nil, fmt.Errorf("cannot NewKnuthYaoTable: sigma=%f yields a second lookup table distance %d >= 32", sigma, d)
			}

			table.Lut2[idx+(d1<<lut2Columns)] = 0x20 | uint8(d)
		}
	}

	return
}

// walk runs the Knuth-Yao random walk from distance d over n columns starting at column c0,
// consuming the bits of rnd from the least significant one. It returns the row hit,
// or -1 and the distance reached if no row was hit.
func (t *KnuthYaoTable) walk(d, c0, n int, rnd uint32) (row, dist int) {
	for c := c0; c < c0+n; c++ {
		d = 2*d + int(rnd&1)
		rnd >>= 1
		if row = t.scan(c, &d); row >= 0 {
			return row, 0
		}
	}
	return -1, d
}

// scan subtracts the bits of column c from *d, from the last row to the first,
// and returns the row at which *d becomes negative, or -1.
func (t *KnuthYaoTable) scan(c int, d *int) int {
	col := t.Columns[c]
	for row := KnuthYaoRows - 1; row >= 0; row-- {
		*d -= int(col >> row & 1)
		if *d < 0 {
			return row
		}
	}
	return -1
}

// Probability returns the probability of the magnitude x as encoded in the table,
// truncated to KnuthYaoColumns bits.
func (t *KnuthYaoTable) Probability(x int) float64 {
	var p float64
	w := 0.5
	for c := 0; c < KnuthYaoColumns; c++ {
		if t.Columns[c]>>x&1 == 1 {
			p += w
		}
		w /= 2
	}
	return p
}
