package ring

import (
	"bufio"
	"fmt"
	"io"
	"slices"

	"github.com/tuneinsight/ringlwe/utils"
	"github.com/tuneinsight/ringlwe/utils/buffer"
)

// Poly is the structure that contains the coefficients of a polynomial.
// Coefficients are stored in a single contiguous slice, in natural order in the
// coefficient domain and in the layout of the NTT in the NTT domain.
type Poly struct {
	Coeffs []uint32
}

// NewPoly creates a new polynomial with N coefficients set to zero.
func NewPoly(N int) Poly {
	return Poly{Coeffs: make([]uint32, N)}
}

// N returns the number of coefficients of the polynomial.
func (pol Poly) N() int {
	return len(pol.Coeffs)
}

// Zero sets all coefficients of the target polynomial to 0.
func (pol Poly) Zero() {
	utils.Zero(pol.Coeffs)
}

// CopyNew creates an exact copy of the target polynomial.
func (pol Poly) CopyNew() *Poly {
	return &Poly{Coeffs: slices.Clone(pol.Coeffs)}
}

// Copy copies the coefficients of p1 on the target polynomial.
// This method does nothing if the underlying arrays are the same.
// This method will resize the target polynomial if its size differs from p1.
func (pol *Poly) Copy(p1 Poly) {
	if len(pol.Coeffs) != len(p1.Coeffs) {
		pol.Coeffs = make([]uint32, len(p1.Coeffs))
	}
	if len(p1.Coeffs) != 0 && &pol.Coeffs[0] == &p1.Coeffs[0] {
		return
	}
	copy(pol.Coeffs, p1.Coeffs)
}

// Equal returns true if the receiver Poly is equal to the provided other Poly.
func (pol Poly) Equal(other *Poly) bool {
	if other == nil {
		return false
	}
	return slices.Equal(pol.Coeffs, other.Coeffs)
}

// BinarySize returns the serialized size of the object in bytes:
// four bytes per coefficient.
func (pol Poly) BinarySize() int {
	return len(pol.Coeffs) << 2
}

// WriteTo writes the coefficients of the polynomial on w, as little-endian uint32.
// It implements the io.WriterTo interface and writes exactly pol.BinarySize() bytes.
func (pol Poly) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		if n, err = buffer.WriteUint32Slice(w, pol.Coeffs); err != nil {
			return n, fmt.Errorf("buffer.WriteUint32Slice: %w", err)
		}

		return n, w.Flush()

	default:
		return pol.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads len(pol.Coeffs) little-endian uint32 coefficients from r.
// The polynomial must be allocated to the expected size beforehand.
//
// Unless r implements the buffer.Reader interface, it will be wrapped into a bufio.Reader.
func (pol *Poly) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		if n, err = buffer.ReadUint32Slice(r, pol.Coeffs); err != nil {
			return n, fmt.Errorf("buffer.ReadUint32Slice: %w", err)
		}

		return

	default:
		return pol.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes a polynomial in a slice of bytes.
func (pol Poly) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(pol.BinarySize())
	_, err = pol.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary on the
// object. The number of coefficients is len(p)/4.
func (pol *Poly) UnmarshalBinary(p []byte) (err error) {

	if len(p)&3 != 0 {
		return fmt.Errorf("cannot UnmarshalBinary: len(p)=%d is not a multiple of 4", len(p))
	}

	if pol.N() != len(p)>>2 {
		pol.Coeffs = make([]uint32, len(p)>>2)
	}

	_, err = pol.ReadFrom(buffer.NewBuffer(p))
	return
}
