package cpu

import (
	"fmt"
	"math"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// Sum returns the total sum of all elements as a scalar tensor of shape [1].
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	result, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	total := float32(0)
	for _, v := range x.AsFloat32() {
		total += v
	}
	result.AsFloat32()[0] = total
	return result
}

// SumDim sums along the given dimension.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sumdim: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("sumdim: unsupported dtype %s", x.DType()))
	}

	outShape := make(tensor.Shape, 0, ndim)
	for i, d := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sumdim: %v", err))
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
			sum := float32(0)
			for d := 0; d < dimSize; d++ {
				sum += src[(o*dimSize+d)*inner+in]
			}
			dst[o*inner+in] = sum
		}
	}

	return result
}

// Argmax returns int32 indices of the maximum value along the given dimension.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("argmax: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	outShape := make(tensor.Shape, 0, ndim)
	for i, d := range shape {
		if i != dim {
			outShape = append(outShape, d)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result, err := tensor.NewRaw(outShape, tensor.Int32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("argmax: %v", err))
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
	dst := result.AsInt32()
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			best := float32(math.Inf(-1))
			bestIdx := int32(0)
			for d := 0; d < dimSize; d++ {
				v := src[(o*dimSize+d)*inner+in]
				if v > best {
					best = v
					bestIdx = int32(d)
				}
			}
			dst[o*inner+in] = bestIdx
		}
	}

	return result
}
