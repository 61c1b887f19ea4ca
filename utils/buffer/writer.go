package buffer

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Write writes a slice of bytes to w.
func Write(w Writer, c []byte) (n int64, err error) {
	nint, err := w.Write(c)
	return int64(nint), err
}

// WriteUint8Slice writes a slice of bytes c to w.
func WriteUint8Slice(w Writer, c []uint8) (n int64, err error) {
	if len(c) == 0 {
		return
	}
	return Write(w, c)
}

// WriteUint32 writes an uint32 c to w.
func WriteUint32(w Writer, c uint32) (n int64, err error) {
	var bb [4]byte
	binary.LittleEndian.PutUint32(bb[:], c)
	return Write(w, bb[:])
}

// WriteInt32 writes an int32 c to w, as its two's complement uint32 representation.
func WriteInt32(w Writer, c int32) (n int64, err error) {
	return WriteUint32(w, uint32(c))
}

// WriteAsInt32 writes the int c to w as an int32.
// It returns an error if c does not fit in an int32.
func WriteAsInt32(w Writer, c int) (n int64, err error) {
	if c < math.MinInt32 || c > math.MaxInt32 {
		return 0, fmt.Errorf("cannot WriteAsInt32: %d overflows int32", c)
	}
	return WriteInt32(w, int32(c))
}

// WriteFloat64 writes the IEEE 754 binary representation of c to w.
func WriteFloat64(w Writer, c float64) (n int64, err error) {
	var bb [8]byte
	binary.LittleEndian.PutUint64(bb[:], math.Float64bits(c))
	return Write(w, bb[:])
}

// WriteUint32Slice writes a slice of uint32 c to w.
// Values are written through the internal buffer of w, flushing
// it whenever it runs full.
func WriteUint32Slice(w Writer, c []uint32) (n int64, err error) {

	for len(c) > 0 {

		available := w.Available() >> 2

		if available == 0 {

			if err = w.Flush(); err != nil {
				return
			}

			if available = w.Available() >> 2; available == 0 {
				return n, fmt.Errorf("cannot WriteUint32Slice: available buffer/4 is zero even after flush")
			}
		}

		chunk := min(available, len(c))

		buf := w.AvailableBuffer()
		for _, v := range c[:chunk] {
			buf = binary.LittleEndian.AppendUint32(buf, v)
		}

		var inc int
		if inc, err = w.Write(buf); err != nil {
			return n + int64(inc), err
		}

		n += int64(inc)
		c = c[chunk:]
	}

	return
}
