package data

import (
	"fmt"
	"math/rand"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// Loader serves batches by index. An epoch is one pass over indices
// [0, Len()).
type Loader[B tensor.Backend] interface {
	// Len returns the number of batches per epoch.
	Len() int
	// Batch returns the i-th batch. Panics if i is out of range.
	Batch(i int) Batch[B]
}

// SliceLoader serves a fixed in-memory slice of batches.
type SliceLoader[B tensor.Backend] []Batch[B]

func (l SliceLoader[B]) Len() int           { return len(l) }
func (l SliceLoader[B]) Batch(i int) Batch[B] { return l[i] }

// Split slices a full dataset into fixed-size batches. Tensors are indexed
// along their leading dimension; a trailing partial batch is kept. Shuffling
// reorders samples before slicing so batch composition varies between
// epochs rebuilt with different rng states.
func Split[B tensor.Backend](tensors map[Modality]*tensor.Tensor[float32, B], batchSize int, rng *rand.Rand, backend B) (SliceLoader[B], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("data: batch size must be positive, got %d", batchSize)
	}
	if len(tensors) == 0 {
		return nil, fmt.Errorf("data: no modalities given")
	}

	n := -1
	for m, t := range tensors {
		if len(t.Shape()) == 0 {
			return nil, fmt.Errorf("data: modality %q has scalar shape", m)
		}
		if n == -1 {
			n = t.Shape()[0]
		} else if t.Shape()[0] != n {
			return nil, fmt.Errorf("data: modality %q has %d samples, expected %d", m, t.Shape()[0], n)
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	numBatches := (n + batchSize - 1) / batchSize
	loader := make(SliceLoader[B], 0, numBatches)
	for b := 0; b < numBatches; b++ {
		start := b * batchSize
		end := start + batchSize
		if end > n {
			end = n
		}
		batch := make(Batch[B], len(tensors))
		for m, t := range tensors {
			batch[m] = gather(t, order[start:end], backend)
		}
		loader = append(loader, batch)
	}
	return loader, nil
}

// gather copies the given sample rows of t into a new tensor.
func gather[B tensor.Backend](t *tensor.Tensor[float32, B], rows []int, backend B) *tensor.Tensor[float32, B] {
	shape := t.Shape().Clone()
	rowSize := 1
	for _, d := range shape[1:] {
		rowSize *= d
	}
	src := t.Data()
	out := make([]float32, len(rows)*rowSize)
	for i, r := range rows {
		copy(out[i*rowSize:(i+1)*rowSize], src[r*rowSize:(r+1)*rowSize])
	}
	shape[0] = len(rows)
	res, err := tensor.FromSlice(out, shape, backend)
	if err != nil {
		panic(fmt.Sprintf("data: gather: %v", err))
	}
	return res
}
