package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	var one any
	switch any(dummy).(type) {
	case float32:
		one = float32(1)
	case int32:
		one = int32(1)
	case bool:
		one = true
	}

	for i := range data {
		data[i] = one.(T)
	}
	return t
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float32 tensor with values drawn from a standard normal
// distribution using the Box-Muller transform. A nil rng falls back to the
// global math/rand source.
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32](shape, b)
	data := t.Data()

	uniform := rand.Float64
	if rng != nil {
		uniform = rng.Float64
	}

	for i := 0; i < len(data); i += 2 {
		u1 := uniform()
		u2 := uniform()
		z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
		z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
		data[i] = float32(z0)
		if i+1 < len(data) {
			data[i+1] = float32(z1)
		}
	}
	return t
}
