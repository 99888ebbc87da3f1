package invoker

import (
	"errors"
	"fmt"
	"os"
)

// ErrDirectoryCreationFailed is returned when the local repository cannot be created.
var ErrDirectoryCreationFailed = errors.New("directory creation failed")

// DirectoryCreationError carries the path that could not be created.
type DirectoryCreationError struct {
	Path string
	Err  error
}

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("cannot create local repository %s: %v", e.Path, e.Err)
}

func (e *DirectoryCreationError) Unwrap() []error {
	return []error{ErrDirectoryCreationFailed, e.Err}
}

// EnsureLocalRepository creates path (and parents) if it does not exist.
// Calling it again for an existing directory is a no-op.
func EnsureLocalRepository(path string) error {
	if isBlank(path) {
		return &DirectoryCreationError{Path: path, Err: errors.New("path is empty")}
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return &DirectoryCreationError{Path: path, Err: errors.New("exists and is not a directory")}
	case !errors.Is(err, os.ErrNotExist):
		return &DirectoryCreationError{Path: path, Err: err}
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return &DirectoryCreationError{Path: path, Err: err}
	}
	return nil
}
