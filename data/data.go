// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides batch and loader abstractions for multimodal
// datasets.
package data

import (
	"math/rand"

	"github.com/chorus-ml/chorus/internal/data"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// Modality names one input stream of a batch.
type Modality = data.Modality

// Modalities of an audio-visual classification batch.
const (
	Image Modality = data.Image
	Audio Modality = data.Audio
	Label Modality = data.Label
)

// Batch maps each modality to its tensor. All tensors share the leading
// sample-count dimension.
type Batch[B tensor.Backend] = data.Batch[B]

// Loader serves batches by index; an epoch is one pass over [0, Len()).
type Loader[B tensor.Backend] = data.Loader[B]

// SliceLoader serves a fixed in-memory slice of batches.
type SliceLoader[B tensor.Backend] = data.SliceLoader[B]

// Split slices a full dataset into fixed-size batches, optionally
// shuffling samples first.
func Split[B tensor.Backend](tensors map[Modality]*tensor.Tensor[float32, B], batchSize int, rng *rand.Rand, backend B) (SliceLoader[B], error) {
	return data.Split(tensors, batchSize, rng, backend)
}
