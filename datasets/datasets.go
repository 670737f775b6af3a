// Package datasets discovers image files and their labels under several
// directory conventions and groups them into fixed-size batches for an
// adversarial-image evaluation pipeline.
//
// The flow is: Resolve maps a directory layout to a Manifest of sample
// records; AssembleBatches loads every selected image through a bounded
// worker pool and slices the result into batches; Stream does the same
// lazily and cyclically, optionally pairing each clean image with its
// adversarial counterpart from a parallel directory tree; SaveImages
// persists generated images concurrently.
//
// The package owns no labels itself: label maps are supplied by the
// caller, keyed by absolute file path, and a discovered path missing from
// a required map is an error. Decoding and encoding are delegated to the
// imgio package; pixel data is float64 in [0, 255] throughout.
package datasets

const (
	// NumClasses is the fixed size of the label domain. Hierarchy layouts
	// and target distributions always assume exactly this many classes.
	NumClasses = 1000

	// NoLabel marks samples whose layout carries no true label
	// (the test modes).
	NoLabel = -1
)

// Mode selects the directory-layout convention Resolve interprets.
type Mode string

const (
	// ModeFlat is a flat directory of image files; true labels come from
	// a caller-supplied map.
	ModeFlat Mode = "flat"
	// ModeFlatTargeted is ModeFlat plus a target label per sample.
	ModeFlatTargeted Mode = "flat_targeted"
	// ModeTest is a flat directory with no label source.
	ModeTest Mode = "test"
	// ModeTestTargeted is ModeTest plus a target label per sample.
	ModeTestTargeted Mode = "test_targeted"
	// ModeHierarchy encodes the class label as the integer name of each
	// sample's parent directory under the root.
	ModeHierarchy Mode = "hierarchy"
)

// LabelMap maps absolute image paths to integer class labels. Lookups are
// strict: a resolved path absent from a required map fails resolution.
type LabelMap map[string]int

// Sample is one discovered image record. Records are immutable once
// produced by Resolve.
type Sample struct {
	// Path is the absolute location of the image file.
	Path string

	// Label is the true class, or NoLabel for the test modes.
	Label int

	// Target is the desired adversarial class. Only meaningful when the
	// enclosing Manifest is targeted.
	Target int
}

// Manifest is an ordered list of samples plus the targetedness decided
// once at resolution time, which all downstream consumers thread through.
type Manifest struct {
	Samples  []Sample
	Targeted bool
}

// Len returns the number of samples in the manifest.
func (m *Manifest) Len() int { return len(m.Samples) }

// Paths returns the sample paths in manifest order.
func (m *Manifest) Paths() []string {
	paths := make([]string, len(m.Samples))
	for i, s := range m.Samples {
		paths[i] = s.Path
	}
	return paths
}

// Labels returns the true labels in manifest order (NoLabel entries for
// the test modes).
func (m *Manifest) Labels() []int {
	labels := make([]int, len(m.Samples))
	for i, s := range m.Samples {
		labels[i] = s.Label
	}
	return labels
}
