// Package buffer holds a downloaded resource fully in memory so it can be
// handed to the upload path without an intermediate file on disk. A Buffer
// has exactly one owner at a time: the download engine appends to it, then
// hands it whole to the uploader, which drains it as a single-pass reader.
package buffer

import "io"

type Buffer struct {
	data []byte
	off  int
}

func New() *Buffer {
	return &Buffer{}
}

// Write appends p to the buffer. It never fails; the signature matches
// io.Writer so streaming loops can use it directly.
func (b *Buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

// Truncate discards all written content. Used only when a server ignores a
// range request and the partial content must be thrown away before the
// fallback full download.
func (b *Buffer) Truncate() {
	b.data = b.data[:0]
	b.off = 0
}

// SeekStart resets the read cursor so the uploader consumes the buffer from
// the beginning.
func (b *Buffer) SeekStart() {
	b.off = 0
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.off >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.off:])
	b.off += n
	return n, nil
}

func (b *Buffer) Len() int64 {
	return int64(len(b.data))
}

// Bytes returns the underlying content without copying. Callers must not
// mutate it.
func (b *Buffer) Bytes() []byte {
	return b.data
}
