package datasets

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Resolve lists the images under imgDir according to the layout mode and
// returns them as an ordered Manifest.
//
// Flat modes list the immediate children of imgDir sorted by absolute
// path. ModeHierarchy walks imgDir recursively in lexical order; every
// subdirectory name must parse as an integer class index and files
// directly under the root contribute no records.
//
// labels is required by ModeFlat and ModeFlatTargeted; targets is
// required by the targeted modes. Both are checked before any I/O, and a
// listed path missing from a required map fails resolution.
func Resolve(imgDir string, mode Mode, labels, targets LabelMap) (*Manifest, error) {
	switch mode {
	case ModeFlat, ModeFlatTargeted:
		if labels == nil {
			return nil, errors.Errorf("mode %q requires a label map", mode)
		}
	case ModeTest, ModeTestTargeted, ModeHierarchy:
		// No true-label source.
	default:
		return nil, errors.Errorf("unsupported mode %q", mode)
	}
	if (mode == ModeFlatTargeted || mode == ModeTestTargeted) && targets == nil {
		return nil, errors.Errorf("mode %q requires a target map", mode)
	}

	absDir, err := filepath.Abs(imgDir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", imgDir)
	}

	switch mode {
	case ModeFlat:
		return resolveFlat(absDir, labels, nil)
	case ModeFlatTargeted:
		return resolveFlat(absDir, labels, targets)
	case ModeTest:
		return resolveFlat(absDir, nil, nil)
	case ModeTestTargeted:
		return resolveFlat(absDir, nil, targets)
	default: // ModeHierarchy, the only case left.
		return resolveHierarchy(absDir)
	}
}

// resolveFlat lists the immediate children of absDir. os.ReadDir returns
// entries sorted by name, so joined with absDir they are sorted by
// absolute path. Hidden entries (leading dot) are skipped and never
// consulted in the label maps.
func resolveFlat(absDir string, labels, targets LabelMap) (*Manifest, error) {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", absDir)
	}
	m := &Manifest{
		Samples:  make([]Sample, 0, len(entries)),
		Targeted: targets != nil,
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		s := Sample{Path: filepath.Join(absDir, entry.Name()), Label: NoLabel}
		if labels != nil {
			label, ok := labels[s.Path]
			if !ok {
				return nil, errors.Errorf("no label for %s", s.Path)
			}
			s.Label = label
		}
		if targets != nil {
			target, ok := targets[s.Path]
			if !ok {
				return nil, errors.Errorf("no target label for %s", s.Path)
			}
			s.Target = target
		}
		m.Samples = append(m.Samples, s)
	}
	return m, nil
}

func resolveHierarchy(absDir string) (*Manifest, error) {
	m := &Manifest{}
	err := filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == absDir {
			return nil
		}
		rel, err := filepath.Rel(absDir, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Validate the class directory even if it holds no files.
			// Nested subdirectories fail here too: "3/extra" is not an
			// integer class index.
			if _, err := strconv.Atoi(rel); err != nil {
				return errors.Errorf("subdirectory %q of %s is not an integer class index", rel, absDir)
			}
			return nil
		}
		classDir := filepath.Dir(rel)
		if classDir == "." {
			// Files directly under the root carry no class.
			return nil
		}
		label, err := strconv.Atoi(classDir)
		if err != nil {
			return errors.Errorf("subdirectory %q of %s is not an integer class index", classDir, absDir)
		}
		m.Samples = append(m.Samples, Sample{Path: path, Label: label})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
