package buffer

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteRead(t *testing.T) {
	b := New()
	_, err := b.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = b.Write([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, int64(11), b.Len())

	out, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))

	// Single-pass: a second read returns EOF immediately
	n, err := b.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestBufferSeekStart(t *testing.T) {
	b := New()
	b.Write([]byte("abcdef"))

	first, err := io.ReadAll(b)
	require.NoError(t, err)

	b.SeekStart()
	second, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBufferTruncateClearsResidue(t *testing.T) {
	b := New()
	b.Write([]byte("partial content written before fallback"))
	b.Truncate()

	assert.Equal(t, int64(0), b.Len())

	b.Write([]byte("fresh"))
	out, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(out))
}
