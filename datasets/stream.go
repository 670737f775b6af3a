package datasets

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// StreamOptions configures NewStream.
type StreamOptions struct {
	// MaxSamples caps the window of records the stream cycles over;
	// 0 or negative means the whole manifest.
	MaxSamples int

	// AdvDir, when set, is the base directory of adversarial images
	// mirroring the clean tree. Each step then also loads, for every
	// clean image, the file at the same relative path under AdvDir.
	AdvDir string
}

// Step is one element of the stream: the cumulative number of images
// loaded in the current cycle, the batch itself, and the paired
// adversarial images when an adversarial directory is configured.
type Step struct {
	Total       int
	Batch       *Batch
	Adversarial *ImageBatch
}

// Stream is a restartable, infinite sequence of batches over a fixed
// window of a manifest. Every Next call reads its images fresh from disk;
// nothing is cached across cycles. When the window is exhausted the
// position wraps to the start and the cumulative total resets; the
// stream never terminates on its own, callers stop by not pulling.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	manifest  *Manifest
	batchSize int
	baseDir   string
	advDir    string
	limit     int

	pos   int
	total int
}

// NewStream builds a stream over the first MaxSamples records of m.
// inputDir is the base directory of the clean images; it anchors the
// prefix substitution used to derive adversarial paths.
func NewStream(m *Manifest, batchSize int, inputDir string, opts StreamOptions) (*Stream, error) {
	if batchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", batchSize)
	}
	if len(m.Samples) == 0 {
		return nil, errors.Errorf("cannot stream over an empty manifest")
	}
	baseDir, err := filepath.Abs(inputDir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", inputDir)
	}
	advDir := opts.AdvDir
	if advDir != "" {
		advDir, err = filepath.Abs(advDir)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %s", opts.AdvDir)
		}
	}
	limit := len(m.Samples)
	if opts.MaxSamples > 0 && opts.MaxSamples < limit {
		limit = opts.MaxSamples
	}
	return &Stream{
		manifest:  m,
		batchSize: batchSize,
		baseDir:   baseDir,
		advDir:    advDir,
		limit:     limit,
	}, nil
}

// Reset rewinds the stream to the start of its window and zeroes the
// cumulative total.
func (s *Stream) Reset() {
	s.pos = 0
	s.total = 0
}

// Next loads and returns the next batch. Batches carry at most batchSize
// records; the last batch of a cycle is shorter when the window size is
// not a multiple of batchSize.
func (s *Stream) Next() (*Step, error) {
	end := min(s.pos+s.batchSize, s.limit)
	window := s.manifest.Samples[s.pos:end]

	names := make([]string, len(window))
	labels := make([]int, len(window))
	for i, sample := range window {
		names[i] = sample.Path
		labels[i] = sample.Label
	}

	images, err := LoadImages(names)
	if err != nil {
		return nil, err
	}
	pixels, err := stackImages(images)
	if err != nil {
		return nil, err
	}

	batch := &Batch{Names: names, Images: pixels, Labels: labels}
	if s.manifest.Targeted {
		batch.Targets, err = targetRows(window)
		if err != nil {
			return nil, err
		}
	}

	step := &Step{Batch: batch}
	if s.advDir != "" {
		advNames := make([]string, len(names))
		for i, name := range names {
			rel, err := filepath.Rel(s.baseDir, name)
			if err != nil {
				return nil, errors.Wrapf(err, "deriving adversarial path for %s", name)
			}
			advNames[i] = filepath.Join(s.advDir, rel)
		}
		advImages, err := LoadImages(advNames)
		if err != nil {
			return nil, err
		}
		adv, err := stackImages(advImages)
		if err != nil {
			return nil, err
		}
		step.Adversarial = &adv
	}

	s.total += len(window)
	step.Total = s.total
	s.pos += s.batchSize
	if s.pos >= s.limit {
		// Wrap for the next cycle.
		s.pos = 0
		s.total = 0
	}
	return step, nil
}
