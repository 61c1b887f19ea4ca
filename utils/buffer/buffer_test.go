package buffer

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {

	t.Run("WriteAndRead/Buffer", func(t *testing.T) {

		buf := NewBufferSize(4 + 4 + 8 + 3 + 4*5)

		_, err := WriteAsInt32(buf, -7)
		require.NoError(t, err)
		_, err = WriteUint32(buf, 12289)
		require.NoError(t, err)
		_, err = WriteFloat64(buf, 12.18)
		require.NoError(t, err)
		_, err = WriteUint8Slice(buf, []byte{2, 5, 1})
		require.NoError(t, err)
		_, err = WriteUint32Slice(buf, []uint32{0, 1, 7680, 12288, 0xFFFFFFFF})
		require.NoError(t, err)

		require.Equal(t, 0, buf.Available())

		// Little-endian layout
		require.Equal(t, []byte{0xF9, 0xFF, 0xFF, 0xFF, 0x01, 0x30, 0x00, 0x00}, buf.Bytes()[:8])

		r := NewBuffer(buf.Bytes())

		var i int
		var u uint32
		var f float64
		oid := make([]byte, 3)
		v := make([]uint32, 5)

		_, err = ReadAsInt32(r, &i)
		require.NoError(t, err)
		require.Equal(t, -7, i)
		_, err = ReadUint32(r, &u)
		require.NoError(t, err)
		require.Equal(t, uint32(12289), u)
		_, err = ReadFloat64(r, &f)
		require.NoError(t, err)
		require.Equal(t, 12.18, f)
		_, err = ReadUint8Slice(r, oid)
		require.NoError(t, err)
		require.Equal(t, []byte{2, 5, 1}, oid)
		_, err = ReadUint32Slice(r, v)
		require.NoError(t, err)
		require.Equal(t, []uint32{0, 1, 7680, 12288, 0xFFFFFFFF}, v)

		_, err = ReadUint32(r, &u)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("WriteAndRead/Bufio", func(t *testing.T) {

		values := make([]uint32, 3000)
		for i := range values {
			values[i] = uint32(i * 7)
		}

		data := new(bytes.Buffer)
		w := bufio.NewWriterSize(data, 64)

		n, err := WriteUint32Slice(w, values)
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		require.Equal(t, int64(4*len(values)), n)
		require.Equal(t, 4*len(values), data.Len())

		r := bufio.NewReaderSize(bytes.NewReader(data.Bytes()), 16)
		have := make([]uint32, len(values))
		n, err = ReadUint32Slice(r, have)
		require.NoError(t, err)
		require.Equal(t, int64(4*len(values)), n)
		require.Equal(t, values, have)
	})

	t.Run("Truncated", func(t *testing.T) {
		r := NewBuffer([]byte{1, 0, 0, 0, 2, 0})
		v := make([]uint32, 2)
		_, err := ReadUint32Slice(r, v)
		require.Error(t, err)
	})

	t.Run("PeekAndDiscard", func(t *testing.T) {
		r := NewBuffer([]byte{1, 2, 3, 4, 5})

		p, err := r.Peek(2)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2}, p)
		require.Equal(t, 5, r.Size())

		d, err := r.Discard(3)
		require.NoError(t, err)
		require.Equal(t, 3, d)

		p, err = r.Peek(4)
		require.ErrorIs(t, err, io.EOF)
		require.Equal(t, []byte{4, 5}, p)

		d, err = r.Discard(4)
		require.ErrorIs(t, err, io.EOF)
		require.Equal(t, 2, d)
		require.Equal(t, 0, r.Size())
	})

	t.Run("Overflow", func(t *testing.T) {
		buf := NewBufferSize(2)
		_, err := WriteUint32(buf, 1)
		require.Error(t, err)
		require.Equal(t, 2, buf.Available())
		_, err = WriteAsInt32(NewBufferSize(4), 1<<40)
		require.Error(t, err)
	})
}
