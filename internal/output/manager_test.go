package output

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTruncatesLongMessagesOnRunes(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(&buf)

	// Wider than any terminal, made of multibyte runes so a byte-index
	// truncation would split a UTF-8 sequence.
	id := m.Register("job")
	m.SetMessage(id, strings.Repeat(StyleSymbols["arrow"], 200))
	m.render()

	out := buf.String()
	require.NotEmpty(t, out)
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "…")
}

func TestRenderKeepsShortMessagesIntact(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(&buf)

	id := m.Register("job")
	m.SetMessage(id, "Uploading blob.bin")
	m.render()

	assert.Contains(t, buf.String(), "Uploading blob.bin")
}
