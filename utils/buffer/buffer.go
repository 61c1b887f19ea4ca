// Package buffer reads and writes fixed-width little-endian values on writers
// and readers that expose their internal buffer, such as those of bufio.
package buffer

import (
	"fmt"
	"io"
)

// Writer is a writer exposing its internal buffer.
// It is implemented by [bufio.Writer] and [Buffer].
type Writer interface {
	io.Writer
	Flush() (err error)
	AvailableBuffer() []byte
	Available() int
}

// Reader is a reader exposing its internal buffer.
// It is implemented by [bufio.Reader] and [Buffer].
type Reader interface {
	io.Reader
	Size() int
	Peek(n int) ([]byte, error)
	Discard(n int) (discarded int, err error)
}

var (
	_ Writer = (*Buffer)(nil)
	_ Reader = (*Buffer)(nil)
)

// Buffer is a [Writer] and [Reader] over a fixed-size []byte.
// It never grows: writing past the end of the backing slice fails.
type Buffer struct {
	buf []byte
	n   int // write offset
	off int // read offset
}

// NewBuffer returns a Buffer backed by buff, with both offsets at buff[0].
// Writes overwrite the content of buff.
func NewBuffer(buff []byte) *Buffer {
	return &Buffer{buf: buff}
}

// NewBufferSize returns a Buffer backed by a new slice of size bytes.
func NewBufferSize(size int) *Buffer {
	return NewBuffer(make([]byte, size))
}

// Write appends p at the write offset. It fails, writing nothing, if p
// does not fit in the remaining capacity.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) > b.Available() {
		return 0, fmt.Errorf("buffer too small: %d > %d", len(p), b.Available())
	}
	n = copy(b.buf[b.n:], p)
	b.n += n
	return
}

// Flush is a no-op.
func (b *Buffer) Flush() (err error) {
	return nil
}

// AvailableBuffer returns an empty slice of capacity b.Available(), valid
// until the next write on b.
func (b *Buffer) AvailableBuffer() []byte {
	return b.buf[b.n:][:0]
}

// Available returns the number of bytes that can still be written.
func (b *Buffer) Available() int {
	return len(b.buf) - b.n
}

// Bytes returns the backing slice.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Read copies the bytes at the read offset into p and returns
// [io.ErrUnexpectedEOF] if fewer than len(p) were left.
func (b *Buffer) Read(p []byte) (n int, err error) {
	n = copy(p, b.buf[b.off:])
	b.off += n
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// Size returns the number of bytes left to read.
func (b *Buffer) Size() int {
	return len(b.buf) - b.off
}

// Peek returns the next n bytes as a reslice of the backing slice, without
// advancing the read offset. It returns [io.EOF] along with the remaining
// bytes if fewer than n are left.
func (b *Buffer) Peek(n int) ([]byte, error) {
	if n > b.Size() {
		return b.buf[b.off:], io.EOF
	}
	return b.buf[b.off : b.off+n], nil
}

// Discard advances the read offset by n bytes, or to the end of the buffer
// with [io.EOF] if fewer than n are left.
func (b *Buffer) Discard(n int) (discarded int, err error) {
	if remain := b.Size(); n > remain {
		b.off = len(b.buf)
		return remain, io.EOF
	}
	b.off += n
	return n, nil
}
