package buffer

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Read reads exactly len(c) bytes from r into c.
func Read(r Reader, c []byte) (n int64, err error) {
	nint, err := io.ReadFull(r, c)
	return int64(nint), err
}

// ReadUint8Slice reads exactly len(c) bytes from r into c.
func ReadUint8Slice(r Reader, c []uint8) (n int64, err error) {
	if len(c) == 0 {
		return
	}
	return Read(r, c)
}

// ReadUint32 reads an uint32 from r into c.
func ReadUint32(r Reader, c *uint32) (n int64, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadUint32: c is nil")
	}

	var bb [4]byte
	if n, err = Read(r, bb[:]); err != nil {
		return
	}

	*c = binary.LittleEndian.Uint32(bb[:])

	return
}

// ReadInt32 reads an int32 from r into c.
func ReadInt32(r Reader, c *int32) (n int64, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadInt32: c is nil")
	}

	var u uint32
	if n, err = ReadUint32(r, &u); err != nil {
		return
	}

	*c = int32(u)

	return
}

// ReadAsInt32 reads an int32 from r into the int c.
func ReadAsInt32(r Reader, c *int) (n int64, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadAsInt32: c is nil")
	}

	var v int32
	if n, err = ReadInt32(r, &v); err != nil {
		return
	}

	*c = int(v)

	return
}

// ReadFloat64 reads an IEEE 754 binary64 value from r into c.
func ReadFloat64(r Reader, c *float64) (n int64, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadFloat64: c is nil")
	}

	var bb [8]byte
	if n, err = Read(r, bb[:]); err != nil {
		return
	}

	*c = math.Float64frombits(binary.LittleEndian.Uint64(bb[:]))

	return
}

// ReadUint32Slice reads len(c) uint32 from r into c.
// Values are decoded directly from the internal buffer of r when possible.
func ReadUint32Slice(r Reader, c []uint32) (n int64, err error) {

	for len(c) > 0 {

		size := min(r.Size()>>2, len(c))

		if size == 0 {
			// The internal buffer cannot hold a single value,
			// fall back on a plain read.
			var inc int64
			if inc, err = ReadUint32(r, &c[0]); err != nil {
				return n + inc, err
			}
			n += inc
			c = c[1:]
			continue
		}

		var slice []byte
		if slice, err = r.Peek(size << 2); err != nil && len(slice) < 4 {
			return n, fmt.Errorf("cannot ReadUint32Slice: %w", io.ErrUnexpectedEOF)
		}

		buffered := len(slice) >> 2

		for i, j := 0, 0; i < buffered; i, j = i+1, j+4 {
			c[i] = binary.LittleEndian.Uint32(slice[j:])
		}

		var inc int
		if inc, err = r.Discard(buffered << 2); err != nil {
			return n + int64(inc), err
		}

		n += int64(inc)
		c = c[buffered:]
	}

	return n, nil
}
