package datasets

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"

	"advstage/imgio"
)

// Target-distribution constants: a smoothed one-hot row over NumClasses,
// deliberately not summing to 1. Downstream consumers depend on these
// exact values.
const (
	targetOn  = 0.99001
	targetOff = 1e-5
)

// ImageBatch holds the pixel data of a batch as one contiguous float64
// buffer with shape [N, Height, Width, Channels], values in [0, 255].
type ImageBatch struct {
	Pix      []float64
	N        int
	Height   int
	Width    int
	Channels int
}

// Image returns sample i as an imgio.Image viewing (not copying) the
// batch buffer.
func (b ImageBatch) Image(i int) imgio.Image {
	stride := b.Height * b.Width * b.Channels
	return imgio.Image{
		Pix:      b.Pix[i*stride : (i+1)*stride],
		Height:   b.Height,
		Width:    b.Width,
		Channels: b.Channels,
	}
}

// Split returns per-sample views of the batch, suitable for SaveImages.
func (b ImageBatch) Split() []imgio.Image {
	images := make([]imgio.Image, b.N)
	for i := range images {
		images[i] = b.Image(i)
	}
	return images
}

// window slices samples [start, end) out of the batch without copying.
func (b ImageBatch) window(start, end int) ImageBatch {
	stride := b.Height * b.Width * b.Channels
	return ImageBatch{
		Pix:      b.Pix[start*stride : end*stride],
		N:        end - start,
		Height:   b.Height,
		Width:    b.Width,
		Channels: b.Channels,
	}
}

// stackImages concatenates decoded images into one contiguous batch
// buffer. All images must share dimensions.
func stackImages(images []imgio.Image) (ImageBatch, error) {
	if len(images) == 0 {
		return ImageBatch{}, nil
	}
	first := images[0]
	stride := first.Size()
	batch := ImageBatch{
		Pix:      make([]float64, len(images)*stride),
		N:        len(images),
		Height:   first.Height,
		Width:    first.Width,
		Channels: first.Channels,
	}
	for i, img := range images {
		if img.Height != first.Height || img.Width != first.Width || img.Channels != first.Channels {
			return ImageBatch{}, errors.Errorf(
				"image %d has dimensions %dx%dx%d, batch requires %dx%dx%d",
				i, img.Height, img.Width, img.Channels, first.Height, first.Width, first.Channels)
		}
		copy(batch.Pix[i*stride:], img.Pix)
	}
	return batch, nil
}

// TargetBatch holds the target distributions of a batch as one contiguous
// float64 buffer with shape [N, NumClasses]. Each row is targetOff
// everywhere except targetOn at the sample's target class.
type TargetBatch struct {
	Rows []float64
	N    int
}

// Row returns the distribution row of sample i, viewing the batch buffer.
func (t *TargetBatch) Row(i int) []float64 {
	return t.Rows[i*NumClasses : (i+1)*NumClasses]
}

// window slices samples [start, end) out of the target rows.
func (t *TargetBatch) window(start, end int) *TargetBatch {
	return &TargetBatch{
		Rows: t.Rows[start*NumClasses : end*NumClasses],
		N:    end - start,
	}
}

// targetRows builds the full target-distribution buffer for the selected
// samples up front.
func targetRows(samples []Sample) (*TargetBatch, error) {
	rows := make([]float64, len(samples)*NumClasses)
	for i := range rows {
		rows[i] = targetOff
	}
	for i, s := range samples {
		if s.Target < 0 || s.Target >= NumClasses {
			return nil, errors.Errorf("target class %d for %s outside [0, %d)", s.Target, s.Path, NumClasses)
		}
		rows[i*NumClasses+s.Target] = targetOn
	}
	return &TargetBatch{Rows: rows, N: len(samples)}, nil
}

// Batch is one fixed-size group of samples: names, pixel data, true
// labels and, for targeted manifests, the target distributions. All
// fields are index-aligned.
//
// When assembled with AssembleOptions.Shared, SharedImages and (if
// targeted) SharedTargets additionally hold copies of the pixel and
// target buffers in Float64 tensors for zero-copy handoff to worker
// goroutines. The tensors are filled once at assembly; afterwards they
// are single-writer/multiple-reader by convention only.
type Batch struct {
	Names   []string
	Images  ImageBatch
	Labels  []int
	Targets *TargetBatch // nil for untargeted manifests

	SharedImages  *tensors.Tensor
	SharedTargets *tensors.Tensor
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int { return len(b.Names) }

// AssembleOptions configures AssembleBatches.
type AssembleOptions struct {
	// MaxSamples caps how many records are loaded; 0 or negative loads
	// them all.
	MaxSamples int

	// Shared also copies each batch's buffers into shared Float64
	// tensors (Batch.SharedImages / Batch.SharedTargets).
	Shared bool
}

// AssembleBatches eagerly loads the manifest's images and partitions them
// into batches of batchSize in manifest order; the final batch may be
// shorter. No shuffling happens here: callers who want a shuffled run
// reorder the manifest's samples first.
//
// Memory is O(total selected images). An empty manifest yields an empty
// batch list and no error.
func AssembleBatches(m *Manifest, batchSize int, opts AssembleOptions) ([]*Batch, error) {
	if batchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", batchSize)
	}
	samples := m.Samples
	if opts.MaxSamples > 0 && opts.MaxSamples < len(samples) {
		samples = samples[:opts.MaxSamples]
	}
	if len(samples) == 0 {
		return nil, nil
	}

	var targets *TargetBatch
	if m.Targeted {
		var err error
		targets, err = targetRows(samples)
		if err != nil {
			return nil, err
		}
	}

	names := make([]string, len(samples))
	labels := make([]int, len(samples))
	for i, s := range samples {
		names[i] = s.Path
		labels[i] = s.Label
	}

	images, err := LoadImages(names)
	if err != nil {
		return nil, err
	}
	all, err := stackImages(images)
	if err != nil {
		return nil, err
	}

	batches := make([]*Batch, 0, (len(samples)+batchSize-1)/batchSize)
	for start := 0; start < len(samples); start += batchSize {
		end := min(start+batchSize, len(samples))
		b := &Batch{
			Names:  names[start:end],
			Images: all.window(start, end),
			Labels: labels[start:end],
		}
		if targets != nil {
			b.Targets = targets.window(start, end)
		}
		if opts.Shared {
			b.SharedImages = b.Images.sharedTensor()
			if b.Targets != nil {
				b.SharedTargets = b.Targets.sharedTensor()
			}
		}
		batches = append(batches, b)
	}
	return batches, nil
}
