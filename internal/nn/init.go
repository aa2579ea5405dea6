package nn

import (
	"math"
	"math/rand"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Values are drawn from U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))),
// which keeps activation variance roughly constant across layers. A nil rng
// falls back to the global math/rand source.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}

	uniform := rand.Float64
	if rng != nil {
		uniform = rng.Float64
	}

	data := t.AsFloat32()
	for i := range data {
		data[i] = float32((uniform()*2.0 - 1.0) * bound)
	}

	return tensor.New[float32, B](t, backend)
}
