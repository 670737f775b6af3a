package datasets

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// ErrNotDirectory reports that a path which should be a directory exists
// as something else. Match it with errors.Is to distinguish a conflict
// from a plain not-exist failure.
var ErrNotDirectory = errors.New("exists but is not a directory")

// InitializeHierarchy prepares dir as an output tree for hierarchy-mode
// results: dir itself plus one subdirectory per class index, "0" through
// "999". Existing directories are left untouched, so the call is
// idempotent; any path in the way that is not a directory fails with
// ErrNotDirectory.
func InitializeHierarchy(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", dir)
	}
	if err := ensureDir(absDir); err != nil {
		return err
	}
	for class := 0; class < NumClasses; class++ {
		if err := ensureDir(filepath.Join(absDir, strconv.Itoa(class))); err != nil {
			return err
		}
	}
	return nil
}

// ensureDir creates path if absent and verifies it is a directory if
// present.
func ensureDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.Wrapf(os.Mkdir(path, 0o755), "creating %s", path)
	}
	if err != nil {
		return errors.Wrapf(err, "checking %s", path)
	}
	if !info.IsDir() {
		return errors.Wrap(ErrNotDirectory, path)
	}
	return nil
}
