package local

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReturnsHandleAndSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("local content"), 0644))

	name, f, size, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "sample.txt", name)
	assert.Equal(t, int64(13), size)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "local content", string(data))
}

// Scenario E: a missing path fails before any network call is made.
func TestOpenMissingPath(t *testing.T) {
	_, _, _, err := Open(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local file not found")
}

func TestOpenRejectsDirectory(t *testing.T) {
	_, _, _, err := Open(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}
