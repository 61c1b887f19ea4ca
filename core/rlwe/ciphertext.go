package rlwe

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tuneinsight/ringlwe/ring"
	"github.com/tuneinsight/ringlwe/utils/buffer"
)

// Ciphertext is a pair of polynomials (C1, C2) in the NTT domain, in natural order.
type Ciphertext struct {
	C1, C2 ring.Poly
}

// NewCiphertext returns a new [Ciphertext] with zero values.
func NewCiphertext(params Parameters) *Ciphertext {
	return &Ciphertext{C1: params.RingQ().NewPoly(), C2: params.RingQ().NewPoly()}
}

// N returns the ring degree of the ciphertext.
func (ct Ciphertext) N() int {
	return ct.C1.N()
}

// CopyNew creates a deep copy of the receiver [Ciphertext] and returns it.
func (ct Ciphertext) CopyNew() *Ciphertext {
	return &Ciphertext{C1: *ct.C1.CopyNew(), C2: *ct.C2.CopyNew()}
}

// Equal performs a deep equal.
func (ct Ciphertext) Equal(other *Ciphertext) bool {
	return other != nil && ct.C1.Equal(&other.C1) && ct.C2.Equal(&other.C2)
}

// BinarySize returns the serialized size of the object in bytes: 8N.
func (ct Ciphertext) BinarySize() int {
	return ct.C1.BinarySize() + ct.C2.BinarySize()
}

// WriteTo writes C1 followed by C2 on w, without header.
//
// Unless w implements the buffer.Writer interface, it will be wrapped into a bufio.Writer.
func (ct Ciphertext) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = ct.C1.WriteTo(w); err != nil {
			return n + inc, fmt.Errorf("ring.Poly.WriteTo[C1]: %w", err)
		}
		n += inc

		if inc, err = ct.C2.WriteTo(w); err != nil {
			return n + inc, fmt.Errorf("ring.Poly.WriteTo[C2]: %w", err)
		}
		n += inc

		return n, w.Flush()

	default:
		return ct.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads C1 and C2 from r. The ciphertext must be allocated
// to the expected ring degree beforehand, see [NewCiphertext].
//
// Unless r implements the buffer.Reader interface, it will be wrapped into a bufio.Reader.
func (ct *Ciphertext) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		if inc, err = ct.C1.ReadFrom(r); err != nil {
			return n + inc, fmt.Errorf("%w: ring.Poly.ReadFrom[C1]: %w", ErrFormat, err)
		}
		n += inc

		if inc, err = ct.C2.ReadFrom(r); err != nil {
			return n + inc, fmt.Errorf("%w: ring.Poly.ReadFrom[C2]: %w", ErrFormat, err)
		}
		n += inc

		return

	default:
		return ct.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (ct Ciphertext) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(ct.BinarySize())
	_, err = ct.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by [Ciphertext.MarshalBinary].
// The ring degree is deduced from the length of p, which must be a multiple of 8.
func (ct *Ciphertext) UnmarshalBinary(p []byte) (err error) {

	if len(p) == 0 || len(p)&7 != 0 {
		return fmt.Errorf("cannot UnmarshalBinary: %w: len(p)=%d is not a positive multiple of 8", ErrFormat, len(p))
	}

	if N := len(p) >> 3; ct.N() != N || ct.C2.N() != N {
		ct.C1, ct.C2 = ring.NewPoly(N), ring.NewPoly(N)
	}

	_, err = ct.ReadFrom(buffer.NewBuffer(p))
	return
}
