package datasets

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// This file maps batch buffers onto gomlx tensors. The shared variant is
// always Float64, whatever the source buffer held: it stands in for the
// process-shared double buffer the evaluation workers consume.

// sharedTensor copies the batch pixels into a Float64 tensor shaped
// [N, Height, Width, Channels].
func (b ImageBatch) sharedTensor() *tensors.Tensor {
	return tensors.FromFlatDataAndDimensions(b.Pix, b.N, b.Height, b.Width, b.Channels)
}

// sharedTensor copies the target rows into a Float64 tensor shaped
// [N, NumClasses].
func (t *TargetBatch) sharedTensor() *tensors.Tensor {
	return tensors.FromFlatDataAndDimensions(t.Rows, t.N, NumClasses)
}

// Tensors converts the batch for the downstream evaluation process:
// images shaped [N, H, W, C] (Float64), labels shaped [N] and, for
// targeted batches, target distributions shaped [N, NumClasses];
// targets is nil otherwise. Shared tensors are reused when present.
func (b *Batch) Tensors() (images, labels, targets *tensors.Tensor) {
	images = b.SharedImages
	if images == nil {
		images = b.Images.sharedTensor()
	}
	labels = tensors.FromValue(b.Labels)
	if b.Targets != nil {
		targets = b.SharedTargets
		if targets == nil {
			targets = b.Targets.sharedTensor()
		}
	}
	return
}
