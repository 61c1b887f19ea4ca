package ring

import (
	"fmt"

	"github.com/tuneinsight/ringlwe/utils"
)

// canonicalPsi lists the primitive 2N-th roots of unity used by the shipped
// parameter sets. Keys and ciphertexts are stored in the NTT domain, so these
// values are part of the wire format.
var canonicalPsi = map[[2]uint64]uint32{
	{256, 7681}:  1065,
	{512, 12289}: 6843,
}

// NumberTheoreticTransformer is an interface to provide
// flexibility on what type of NTT is used by the struct Ring.
type NumberTheoreticTransformer interface {
	Forward(p1, p2 []uint32)
	Backward(p1, p2 []uint32)
}

// NTTTable stores the precomputed constants of the nega-cyclic NTT of a ring.
// It is read-only after creation and can be shared between goroutines.
type NTTTable struct {
	// Psi is the primitive 2N-th root of unity, Omega = Psi^2.
	Psi, Omega uint32

	// Twist[i] = Psi^i.
	Twist []uint32
	// RootsForward[k] = Omega^k and RootsBackward[k] = Omega^-k, for k < N/2.
	// The butterfly stage of size m reads them with stride N/m.
	RootsForward, RootsBackward []uint32
	// Scale[j] = N^-1 * Psi^-brv(j).
	Scale []uint32
}

// NumberTheoreticTransformerStandard computes the nega-cyclic NTT in the ring Z_q[X]/(X^N+1).
//
// Forward evaluates its natural order input at the odd powers of Psi and returns
// the evaluations in bit-reversed order:
//
//	Forward(a)[j] = a(Psi^(2*brv(j)+1)).
//
// Backward expects its input in natural order and returns the coefficients in
// bit-reversed order, hence Rearrange(Backward(Rearrange(Forward(a)))) = a.
type NumberTheoreticTransformerStandard struct {
	n            int
	modulus      uint32
	bredConstant uint64
	*NTTTable
}

// NewNumberTheoreticTransformerStandard creates the NTT of Z_q[X]/(X^N+1).
func NewNumberTheoreticTransformerStandard(N int, q uint32) (ntt *NumberTheoreticTransformerStandard, err error) {

	if !utils.IsPowerOfTwo(N) {
		return nil, fmt.Errorf("cannot NewNumberTheoreticTransformerStandard: N=%d is not a power of two", N)
	}

	if !IsNTTFriendly(q, N) {
		return nil, fmt.Errorf("cannot NewNumberTheoreticTransformerStandard: q=%d is not a prime congruent to 1 mod 2N=%d", q, 2*N)
	}

	psi, ok := canonicalPsi[[2]uint64{uint64(N), uint64(q)}]
	if !ok {
		if psi, err = PrimitiveNthRoot(q, 2*N); err != nil {
			return nil, fmt.Errorf("cannot NewNumberTheoreticTransformerStandard: %w", err)
		}
	}

	return &NumberTheoreticTransformerStandard{
		n:            N,
		modulus:      q,
		bredConstant: BRedConstant(q),
		NTTTable:     newNTTTable(N, q, psi),
	}, nil
}

func newNTTTable(N int, q uint32, psi uint32) (table *NTTTable) {

	u := BRedConstant(q)
	logN := utils.Log2(uint64(N))

	omega := BRed(psi, psi, q, u)
	omegaInv := ModInverse(uint64(omega), q)
	psiInv := ModInverse(uint64(psi), q)
	nInv := ModInverse(uint64(N), q)

	table = &NTTTable{
		Psi:           psi,
		Omega:         omega,
		Twist:         make([]uint32, N),
		RootsForward:  make([]uint32, N>>1),
		RootsBackward: make([]uint32, N>>1),
		Scale:         make([]uint32, N),
	}

	table.Twist[0] = 1
	for i := 1; i < N; i++ {
		table.Twist[i] = BRed(table.Twist[i-1], psi, q, u)
	}

	table.RootsForward[0] = 1
	table.RootsBackward[0] = 1
	for k := 1; k < N>>1; k++ {
		table.RootsForward[k] = BRed(table.RootsForward[k-1], omega, q, u)
		table.RootsBackward[k] = BRed(table.RootsBackward[k-1], omegaInv, q, u)
	}

	for j := 0; j < N; j++ {
		table.Scale[j] = BRed(nInv, ModExp(uint64(psiInv), uint64(utils.BitReverse(uint64(j), logN)), q), q, u)
	}

	return
}

// Forward writes the forward NTT in Z_q[X]/(X^N+1) of p1 on p2.
func (rntt NumberTheoreticTransformerStandard) Forward(p1, p2 []uint32) {

	q, u := rntt.modulus, rntt.bredConstant

	for i, tw := range rntt.Twist {
		p2[i] = BRed(p1[i], tw, q, u)
	}

	butterflies(p2, rntt.RootsForward, q, u)
}

// Backward writes the backward NTT in Z_q[X]/(X^N+1) of p1 on p2.
func (rntt NumberTheoreticTransformerStandard) Backward(p1, p2 []uint32) {

	if &p1[0] != &p2[0] {
		copy(p2, p1)
	}

	q, u := rntt.modulus, rntt.bredConstant

	butterflies(p2, rntt.RootsBackward, q, u)

	for j, s := range rntt.Scale {
		p2[j] = BRed(p2[j], s, q, u)
	}
}

// butterflies applies in place the decimation-in-frequency (Gentleman-Sande)
// network of the cyclic NTT of size len(a), whose root powers are given by roots.
// Input is in natural order and output in bit-reversed order.
func butterflies(a, roots []uint32, q uint32, u uint64) {

	N := len(a)

	for m := N; m > 1; m >>= 1 {

		h := m >> 1
		stride := N / m

		for k := 0; k < N; k += m {

			x, y := a[k:k+h], a[k+h:k+m]

			for j := range x {
				X, Y := x[j], y[j]
				x[j] = CRed(X+Y, q)
				y[j] = BRed(X+q-Y, roots[j*stride], q, u)
			}
		}
	}
}
