package rlwe

import (
	"bufio"
	"fmt"
	"io"

	"github.com/google/go-cmp/cmp"

	"github.com/tuneinsight/ringlwe/ring"
	"github.com/tuneinsight/ringlwe/utils/buffer"
)

// maxSerializedN bounds the ring degree accepted when reading a key,
// before any allocation.
const maxSerializedN = 1 << 16

// Key is the interface implemented by the keys of the scheme: [PublicKey]
// and [PrivateKey].
type Key interface {
	// N returns the ring degree of the key.
	N() int
}

// PublicKey is a type for RLWE public keys: the uniform polynomial A and
// P = R1 - A*R2, both in the NTT domain.
type PublicKey struct {
	A, P ring.Poly
}

// PrivateKey is a type for RLWE private keys: the polynomial R2 in the NTT
// domain, rearranged for direct use during the decryption.
type PrivateKey struct {
	R2 ring.Poly
}

// KeyPair groups a public and a private key. Either of them may be nil: a
// public key is enough to encrypt and a private key is enough to decrypt.
type KeyPair struct {
	Public  Key
	Private Key
}

// NewPublicKey returns a new [PublicKey] with zero values.
func NewPublicKey(params Parameters) *PublicKey {
	return &PublicKey{A: params.RingQ().NewPoly(), P: params.RingQ().NewPoly()}
}

// NewPrivateKey returns a new [PrivateKey] with zero values.
func NewPrivateKey(params Parameters) *PrivateKey {
	return &PrivateKey{R2: params.RingQ().NewPoly()}
}

// NewKeyPair creates a [KeyPair] from the given keys, either of which may be nil.
// It returns an error wrapping [ErrState] if both keys are nil or if a key
// is not of the expected type.
func NewKeyPair(public, private Key) (kp *KeyPair, err error) {

	if public == nil && private == nil {
		return nil, fmt.Errorf("cannot NewKeyPair: %w: no key provided", ErrState)
	}

	if public != nil {
		if _, ok := public.(*PublicKey); !ok {
			return nil, fmt.Errorf("cannot NewKeyPair: %w: public key must be *rlwe.PublicKey but have %T", ErrState, public)
		}
	}

	if private != nil {
		if _, ok := private.(*PrivateKey); !ok {
			return nil, fmt.Errorf("cannot NewKeyPair: %w: private key must be *rlwe.PrivateKey but have %T", ErrState, private)
		}
	}

	return &KeyPair{Public: public, Private: private}, nil
}

// PublicKey returns the public key of the pair, if it holds an [*PublicKey].
func (kp KeyPair) PublicKey() (pk *PublicKey, ok bool) {
	pk, ok = kp.Public.(*PublicKey)
	return pk, ok && pk != nil
}

// PrivateKey returns the private key of the pair, if it holds an [*PrivateKey].
func (kp KeyPair) PrivateKey() (sk *PrivateKey, ok bool) {
	sk, ok = kp.Private.(*PrivateKey)
	return sk, ok && sk != nil
}

// N returns the ring degree of the public key.
func (pk PublicKey) N() int {
	return pk.A.N()
}

// Equal performs a deep equal.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return cmp.Equal(pk.A.Coeffs, other.A.Coeffs) && cmp.Equal(pk.P.Coeffs, other.P.Coeffs)
}

// CopyNew creates a deep copy of the receiver [PublicKey] and returns it.
func (pk *PublicKey) CopyNew() *PublicKey {
	if pk == nil {
		return nil
	}
	return &PublicKey{A: *pk.A.CopyNew(), P: *pk.P.CopyNew()}
}

// BinarySize returns the serialized size of the object in bytes.
func (pk PublicKey) BinarySize() int {
	return 12 + pk.A.BinarySize() + pk.P.BinarySize()
}

// WriteTo writes the object on an io.Writer as
// int32 N, int32 len(A), A, int32 len(P), P, where the lengths count bytes (4N).
//
// Unless w implements the buffer.Writer interface, it will be wrapped into a bufio.Writer.
func (pk PublicKey) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = buffer.WriteAsInt32(w, pk.N()); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteAsInt32[N]: %w", err)
		}
		n += inc

		for _, pol := range []ring.Poly{pk.A, pk.P} {

			if inc, err = writePoly(w, pol); err != nil {
				return n + inc, err
			}
			n += inc
		}

		return n, w.Flush()

	default:
		return pk.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Reader. It returns an error wrapping
// [ErrFormat] if the stream is truncated or inconsistent.
//
// Unless r implements the buffer.Reader interface, it will be wrapped into a bufio.Reader.
func (pk *PublicKey) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64
		var N int

		if inc, err = readN(r, &N); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = readPoly(r, N, &pk.A); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = readPoly(r, N, &pk.P); err != nil {
			return n + inc, err
		}
		n += inc

		return

	default:
		return pk.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (pk PublicKey) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(pk.BinarySize())
	_, err = pk.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// [PublicKey.MarshalBinary] or [PublicKey.WriteTo] on the object.
func (pk *PublicKey) UnmarshalBinary(p []byte) (err error) {
	var n int64
	if n, err = pk.ReadFrom(buffer.NewBuffer(p)); err == nil && int(n) != len(p) {
		err = fmt.Errorf("cannot UnmarshalBinary: %w: %d trailing bytes", ErrFormat, len(p)-int(n))
	}
	return
}

// N returns the ring degree of the private key.
func (sk PrivateKey) N() int {
	return sk.R2.N()
}

// Equal performs a deep equal.
func (sk *PrivateKey) Equal(other *PrivateKey) bool {
	if sk == nil || other == nil {
		return sk == other
	}
	return cmp.Equal(sk.R2.Coeffs, other.R2.Coeffs)
}

// CopyNew creates a deep copy of the receiver [PrivateKey] and returns it.
func (sk *PrivateKey) CopyNew() *PrivateKey {
	if sk == nil {
		return nil
	}
	return &PrivateKey{R2: *sk.R2.CopyNew()}
}

// Zero overwrites the coefficients of the private key with zeros.
func (sk *PrivateKey) Zero() {
	sk.R2.Zero()
}

// BinarySize returns the serialized size of the object in bytes.
func (sk PrivateKey) BinarySize() int {
	return 8 + sk.R2.BinarySize()
}

// WriteTo writes the object on an io.Writer as int32 N, int32 len(R2), R2,
// where the length counts bytes (4N).
//
// Unless w implements the buffer.Writer interface, it will be wrapped into a bufio.Writer.
func (sk PrivateKey) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = buffer.WriteAsInt32(w, sk.N()); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteAsInt32[N]: %w", err)
		}
		n += inc

		if inc, err = writePoly(w, sk.R2); err != nil {
			return n + inc, err
		}
		n += inc

		return n, w.Flush()

	default:
		return sk.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Reader. It returns an error wrapping
// [ErrFormat] if the stream is truncated or inconsistent.
//
// Unless r implements the buffer.Reader interface, it will be wrapped into a bufio.Reader.
func (sk *PrivateKey) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64
		var N int

		if inc, err = readN(r, &N); err != nil {
			return n + inc, err
		}
		n += inc

		if inc, err = readPoly(r, N, &sk.R2); err != nil {
			return n + inc, err
		}
		n += inc

		return

	default:
		return sk.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (sk PrivateKey) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(sk.BinarySize())
	_, err = sk.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// [PrivateKey.MarshalBinary] or [PrivateKey.WriteTo] on the object.
func (sk *PrivateKey) UnmarshalBinary(p []byte) (err error) {
	var n int64
	if n, err = sk.ReadFrom(buffer.NewBuffer(p)); err == nil && int(n) != len(p) {
		err = fmt.Errorf("cannot UnmarshalBinary: %w: %d trailing bytes", ErrFormat, len(p)-int(n))
	}
	return
}

// writePoly writes int32 len(bytes(pol)) followed by the coefficients of pol.
func writePoly(w buffer.Writer, pol ring.Poly) (n int64, err error) {

	var inc int64

	if inc, err = buffer.WriteAsInt32(w, pol.BinarySize()); err != nil {
		return n + inc, fmt.Errorf("buffer.WriteAsInt32[len]: %w", err)
	}
	n += inc

	if inc, err = pol.WriteTo(w); err != nil {
		return n + inc, fmt.Errorf("ring.Poly.WriteTo: %w", err)
	}

	return n + inc, nil
}

// readN reads the ring degree of a serialized key.
func readN(r buffer.Reader, N *int) (n int64, err error) {

	if n, err = buffer.ReadAsInt32(r, N); err != nil {
		return n, fmt.Errorf("%w: buffer.ReadAsInt32[N]: %w", ErrFormat, err)
	}

	if *N <= 0 || *N > maxSerializedN {
		return n, fmt.Errorf("%w: invalid N=%d", ErrFormat, *N)
	}

	return
}

// readPoly reads int32 len(bytes(pol)) followed by the coefficients of pol,
// checking that the length is that of N coefficients.
func readPoly(r buffer.Reader, N int, pol *ring.Poly) (n int64, err error) {

	var inc int64
	var size int

	if inc, err = buffer.ReadAsInt32(r, &size); err != nil {
		return n + inc, fmt.Errorf("%w: buffer.ReadAsInt32[len]: %w", ErrFormat, err)
	}
	n += inc

	if size != N<<2 {
		return n, fmt.Errorf("%w: polynomial of %d bytes does not match N=%d", ErrFormat, size, N)
	}

	if pol.N() != N {
		*pol = ring.NewPoly(N)
	}

	if inc, err = pol.ReadFrom(r); err != nil {
		return n + inc, fmt.Errorf("%w: ring.Poly.ReadFrom: %w", ErrFormat, err)
	}

	return n + inc, nil
}
