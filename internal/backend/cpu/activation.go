package cpu

import (
	"fmt"
	"math"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// Softmax applies softmax along the given dimension using the max-shift
// trick for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("softmax: dimension %d out of range for tensor of rank %d", dim, ndim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= shape[i]
	}
	dimSize := shape[dim]

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			maxVal := float32(math.Inf(-1))
			for d := 0; d < dimSize; d++ {
				v := src[(o*dimSize+d)*inner+in]
				if v > maxVal {
					maxVal = v
				}
			}

			sumExp := float32(0)
			for d := 0; d < dimSize; d++ {
				idx := (o*dimSize + d) * inner
				e := float32(math.Exp(float64(src[idx+in] - maxVal)))
				dst[idx+in] = e
				sumExp += e
			}

			for d := 0; d < dimSize; d++ {
				dst[(o*dimSize+d)*inner+in] /= sumExp
			}
		}
	}

	return result
}

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("relu: unsupported dtype %s", x.DType()))
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("relu: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for i, v := range src {
		if v > 0 {
			dst[i] = v
		}
	}
	return result
}
