package recordfs

import (
	"errors"
	"io/fs"
	"os"
)

// RemoveFile unlinks path. A file that is already gone counts as removed.
// It reports whether this call deleted the file.
func RemoveFile(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
