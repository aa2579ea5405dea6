package data

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorus-ml/chorus/internal/backend/cpu"
	"github.com/chorus-ml/chorus/internal/tensor"
)

func dataset(t *testing.T, backend *cpu.CPUBackend, n int) map[Modality]*tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	image := make([]float32, n*4)
	audio := make([]float32, n*2)
	label := make([]float32, n*2)
	for i := 0; i < n; i++ {
		for j := 0; j < 4; j++ {
			image[i*4+j] = float32(i)
		}
		audio[i*2] = float32(i)
		audio[i*2+1] = float32(i)
		label[i*2+i%2] = 1
	}
	im, err := tensor.FromSlice(image, tensor.Shape{n, 2, 2, 1}, backend)
	require.NoError(t, err)
	au, err := tensor.FromSlice(audio, tensor.Shape{n, 2}, backend)
	require.NoError(t, err)
	lb, err := tensor.FromSlice(label, tensor.Shape{n, 2}, backend)
	require.NoError(t, err)
	return map[Modality]*tensor.Tensor[float32, *cpu.CPUBackend]{
		Image: im,
		Audio: au,
		Label: lb,
	}
}

func TestSplitBatchSizesAndTrailingPartial(t *testing.T) {
	backend := cpu.New()
	loader, err := Split(dataset(t, backend, 10), 4, nil, backend)
	require.NoError(t, err)

	require.Equal(t, 3, loader.Len())
	assert.Equal(t, 4, loader.Batch(0).Size())
	assert.Equal(t, 4, loader.Batch(1).Size())
	assert.Equal(t, 2, loader.Batch(2).Size(), "trailing partial batch is kept")

	for i := 0; i < loader.Len(); i++ {
		require.NoError(t, loader.Batch(i).Validate())
		assert.Equal(t, tensor.Shape{loader.Batch(i).Size(), 2, 2, 1}, loader.Batch(i)[Image].Shape())
	}
}

func TestSplitKeepsModalitiesAligned(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(5))
	loader, err := Split(dataset(t, backend, 8), 3, rng, backend)
	require.NoError(t, err)

	// Every sample encodes its original index in both image and audio, so
	// shuffling must move them together.
	var seen []int
	for i := 0; i < loader.Len(); i++ {
		batch := loader.Batch(i)
		imData := batch[Image].Data()
		auData := batch[Audio].Data()
		for s := 0; s < batch.Size(); s++ {
			assert.Equal(t, imData[s*4], auData[s*2], "image and audio rows must stay paired")
			seen = append(seen, int(imData[s*4]))
		}
	}

	sort.Ints(seen)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, seen, "shuffle permutes without dropping samples")
}

func TestSplitShuffleChangesOrder(t *testing.T) {
	backend := cpu.New()
	plain, err := Split(dataset(t, backend, 16), 16, nil, backend)
	require.NoError(t, err)
	shuffled, err := Split(dataset(t, backend, 16), 16, rand.New(rand.NewSource(9)), backend)
	require.NoError(t, err)

	assert.NotEqual(t, plain.Batch(0)[Image].Data(), shuffled.Batch(0)[Image].Data())
}

func TestSplitErrors(t *testing.T) {
	backend := cpu.New()
	ds := dataset(t, backend, 4)

	_, err := Split(ds, 0, nil, backend)
	assert.Error(t, err)

	_, err = Split(map[Modality]*tensor.Tensor[float32, *cpu.CPUBackend]{}, 2, nil, backend)
	assert.Error(t, err)

	short, err2 := tensor.FromSlice([]float32{1, 0}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err2)
	ds[Label] = short
	_, err = Split(ds, 2, nil, backend)
	assert.Error(t, err, "mismatched sample counts are rejected")
}

func TestBatchValidate(t *testing.T) {
	backend := cpu.New()
	im, err := tensor.FromSlice(make([]float32, 8), tensor.Shape{2, 4}, backend)
	require.NoError(t, err)
	lb, err := tensor.FromSlice([]float32{1, 0, 0, 1, 1, 0}, tensor.Shape{3, 2}, backend)
	require.NoError(t, err)

	bad := Batch[*cpu.CPUBackend]{Image: im, Label: lb}
	assert.Error(t, bad.Validate())

	good := Batch[*cpu.CPUBackend]{Image: im}
	assert.NoError(t, good.Validate())
	assert.Equal(t, 2, good.Size())
}

func TestBatchToSameDevice(t *testing.T) {
	backend := cpu.New()
	im, err := tensor.FromSlice(make([]float32, 4), tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b := Batch[*cpu.CPUBackend]{Image: im}

	assert.NotPanics(t, func() { b.To(tensor.CPU) })
}
