package ring

import (
	"fmt"

	"github.com/tuneinsight/ringlwe/utils"
)

// EncodeMessage maps the bits of m onto p1: bit i of m, read most significant bit
// first within each byte, is stored at coefficient brv(i) with value bit * floor(q/2).
// m must be exactly N/8 bytes long.
func (r Ring) EncodeMessage(m []byte, p1 Poly) (err error) {

	if len(m) != r.MaxMessageBytes() {
		return fmt.Errorf("cannot EncodeMessage: len(m)=%d != N/8=%d", len(m), r.MaxMessageBytes())
	}

	if p1.N() != r.n {
		return fmt.Errorf("cannot EncodeMessage: p1.N()=%d != N=%d", p1.N(), r.n)
	}

	qby2 := r.modulus >> 1

	for i := 0; i < r.n; i++ {
		bit := uint32(m[i>>3]>>(7-(i&7))) & 1
		p1.Coeffs[utils.BitReverse(uint64(i), r.logN)] = bit * qby2
	}

	return
}

// DecodeMessage writes on m the bits decoded from p1: bit i is read from coefficient
// brv(i) and is set if and only if floor(q/4) < p1[brv(i)] < 3*floor(q/4).
// Bits are packed most significant bit first. m must be exactly N/8 bytes long.
func (r Ring) DecodeMessage(p1 Poly, m []byte) (err error) {

	if len(m) != r.MaxMessageBytes() {
		return fmt.Errorf("cannot DecodeMessage: len(m)=%d != N/8=%d", len(m), r.MaxMessageBytes())
	}

	if p1.N() != r.n {
		return fmt.Errorf("cannot DecodeMessage: p1.N()=%d != N=%d", p1.N(), r.n)
	}

	qby4 := r.modulus >> 2
	qby4x3 := 3 * qby4

	utils.Zero(m)

	for i := 0; i < r.n; i++ {
		if c := p1.Coeffs[utils.BitReverse(uint64(i), r.logN)]; c > qby4 && c < qby4x3 {
			m[i>>3] |= 0x80 >> (i & 7)
		}
	}

	return
}
