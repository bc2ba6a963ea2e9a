// Package local resolves filesystem sources. The file handle itself is the
// upload stream; nothing is copied into memory.
package local

import (
	"fmt"
	"os"
	"path/filepath"
)

// Open validates the path and returns the filename, an open handle, and the
// size. A missing or unreadable path fails here, before any network call.
func Open(path string) (string, *os.File, int64, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil, 0, fmt.Errorf("local file not found: %s", path)
	}
	if err != nil {
		return "", nil, 0, fmt.Errorf("error reading local path %s: %v", path, err)
	}
	if info.IsDir() {
		return "", nil, 0, fmt.Errorf("source is a directory, not a file: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", nil, 0, fmt.Errorf("error opening local file %s: %v", path, err)
	}
	return filepath.Base(path), f, info.Size(), nil
}
