// FILE: lixenwraith/layered/fs.go
package layered

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// FileSystem abstracts the file operations of the reloading provider so
// tests can substitute counting or failing stubs. Each operation reports
// absence through the ok flag instead of an error, which is what lets
// allow-missing semantics compose cleanly.
type FileSystem interface {
	// ResolvePath resolves symlinks to the real path. ok is false when the
	// path does not exist.
	ResolvePath(path string) (real string, ok bool, err error)

	// ModTime returns the file's modification timestamp.
	ModTime(path string) (mod time.Time, ok bool, err error)

	// ReadFile returns the file contents.
	ReadFile(path string) (data []byte, ok bool, err error)
}

// OSFileSystem is the production FileSystem backed by the os package.
type OSFileSystem struct{}

func (OSFileSystem) ResolvePath(path string) (string, bool, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return real, true, nil
}

func (OSFileSystem) ModTime(path string) (time.Time, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return info.ModTime(), true, nil
}

func (OSFileSystem) ReadFile(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}
