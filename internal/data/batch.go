// Package data defines the batch and loader abstractions consumed by the
// training loop.
package data

import (
	"fmt"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// Modality names the input streams of a multimodal batch.
type Modality string

// Modalities of an audio-visual classification batch.
const (
	Image Modality = "image"
	Audio Modality = "audio"
	Label Modality = "label"
)

// Batch maps each modality to its float32 tensor. All tensors share the
// leading sample-count dimension. Labels are one-hot rows
// [batch_size, num_classes].
type Batch[B tensor.Backend] map[Modality]*tensor.Tensor[float32, B]

// Size returns the number of samples in the batch.
func (b Batch[B]) Size() int {
	for _, t := range b {
		return t.Shape()[0]
	}
	return 0
}

// To places the batch on the given device. Device placement is an explicit
// per-call argument of each training step, never an implicit mutation of
// shared state.
func (b Batch[B]) To(device tensor.Device) Batch[B] {
	for m, t := range b {
		if t.Device() != device {
			panic(fmt.Sprintf("batch: cannot move modality %q from %s to %s: no transfer path", m, t.Device(), device))
		}
	}
	return b
}

// Validate checks that every modality shares the same leading dimension.
func (b Batch[B]) Validate() error {
	n := -1
	for m, t := range b {
		if len(t.Shape()) == 0 {
			return fmt.Errorf("batch: modality %q has scalar shape", m)
		}
		if n == -1 {
			n = t.Shape()[0]
			continue
		}
		if t.Shape()[0] != n {
			return fmt.Errorf("batch: modality %q has %d samples, expected %d", m, t.Shape()[0], n)
		}
	}
	return nil
}
