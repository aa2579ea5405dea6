// Package train implements the supervised training loop for multimodal
// classifiers: chunked input subsampling, per-epoch train and validation
// passes, weighted F1 scoring, early stopping, and metric logging.
package train

import (
	"fmt"
	"math/rand"

	"github.com/chorus-ml/chorus/internal/data"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// IndexRange is a half-open range [Start, End) of flattened positions.
type IndexRange struct {
	Start int
	End   int
}

// Len returns the number of positions in the range.
func (r IndexRange) Len() int { return r.End - r.Start }

// Subsampling selects, per modality, which flattened output positions a
// forward pass decodes. A nil entry means the modality is decoded in full.
type Subsampling map[data.Modality]*IndexRange

// SubsampleRule holds the chunking parameters shared by every step of a run.
type SubsampleRule struct {
	// NumChunks is the number of contiguous chunks the flattened image and
	// audio positions are divided into.
	NumChunks int
	// SamplesPerPatch divides the audio temporal axis before chunking.
	SamplesPerPatch int
}

// Generate picks one chunk index uniformly from [0, NumChunks) and returns
// the corresponding index range per modality. Image chunk size is the
// product of the non-batch, non-channel image dimensions divided by
// NumChunks; audio chunk size is the temporal length divided by
// SamplesPerPatch and NumChunks. Labels are never subsampled.
//
// Pure function of its inputs and the random source.
func (r SubsampleRule) Generate(rng *rand.Rand, imShape, auShape tensor.Shape) Subsampling {
	if r.NumChunks < 1 {
		panic(fmt.Sprintf("subsample: NumChunks must be >= 1, got %d", r.NumChunks))
	}
	if r.SamplesPerPatch < 1 {
		panic(fmt.Sprintf("subsample: SamplesPerPatch must be >= 1, got %d", r.SamplesPerPatch))
	}
	if len(imShape) < 3 {
		panic(fmt.Sprintf("subsample: image shape %v needs batch, spatial and channel dims", imShape))
	}
	if len(auShape) < 2 {
		panic(fmt.Sprintf("subsample: audio shape %v needs batch and temporal dims", auShape))
	}

	var idx int
	if rng != nil {
		idx = rng.Intn(r.NumChunks)
	} else {
		idx = rand.Intn(r.NumChunks)
	}

	imageSpatial := 1
	for _, d := range imShape[1 : len(imShape)-1] {
		imageSpatial *= d
	}
	imageChunk := imageSpatial / r.NumChunks
	audioChunk := auShape[1] / r.SamplesPerPatch / r.NumChunks

	return Subsampling{
		data.Image: {Start: imageChunk * idx, End: imageChunk * (idx + 1)},
		data.Audio: {Start: audioChunk * idx, End: audioChunk * (idx + 1)},
		data.Label: nil,
	}
}
