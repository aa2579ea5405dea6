package cpu

import (
	"fmt"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// Reshape returns a tensor with the same data and a new shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v to %v: element count mismatch", t.Shape(), newShape))
	}
	return t.WithShape(newShape)
}

// Transpose permutes the tensor's dimensions. With no axes it reverses them.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), ndim))
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: axis %d out of range for %dD tensor", ax, ndim))
		}
		newShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(newShape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	src := t.AsFloat32()
	dst := result.AsFloat32()
	srcStrides := shape.ComputeStrides()
	dstStrides := newShape.ComputeStrides()

	coords := make([]int, ndim)
	for i := range dst {
		// Decompose flat dst index into coordinates.
		rem := i
		for d := 0; d < ndim; d++ {
			coords[d] = rem / dstStrides[d]
			rem %= dstStrides[d]
		}
		srcIdx := 0
		for d := 0; d < ndim; d++ {
			srcIdx += coords[d] * srcStrides[axes[d]]
		}
		dst[i] = src[srcIdx]
	}

	return result
}

// Narrow returns the contiguous slice [start, start+length) along dim.
func (cpu *CPUBackend) Narrow(t *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("narrow: dimension %d out of range for %dD tensor", dim, len(shape)))
	}
	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dimension of size %d", start, start+length, shape[dim]))
	}

	newShape := shape.Clone()
	newShape[dim] = length

	result, err := tensor.NewRaw(newShape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("narrow: %v", err))
	}
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("narrow: unsupported dtype %s", t.DType()))
	}

	// Copy row blocks. outer iterates dims before dim, the block is
	// everything after it.
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	block := 1
	for i := dim + 1; i < len(shape); i++ {
		block *= shape[i]
	}

	src := t.AsFloat32()
	dst := result.AsFloat32()
	for o := 0; o < outer; o++ {
		srcBase := (o*shape[dim] + start) * block
		dstBase := o * length * block
		copy(dst[dstBase:dstBase+length*block], src[srcBase:srcBase+length*block])
	}

	return result
}

// Cat concatenates tensors along a dimension. All tensors must share every
// other dimension.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: empty tensor list")
	}

	first := tensors[0].Shape()
	if dim < 0 || dim >= len(first) {
		panic(fmt.Sprintf("cat: dimension %d out of range for %dD tensor", dim, len(first)))
	}

	total := 0
	for _, t := range tensors {
		shape := t.Shape()
		if len(shape) != len(first) {
			panic("cat: tensors must have the same rank")
		}
		for i := range shape {
			if i != dim && shape[i] != first[i] {
				panic(fmt.Sprintf("cat: shape mismatch at dimension %d: %v vs %v", i, first, shape))
			}
		}
		total += shape[dim]
	}

	newShape := first.Clone()
	newShape[dim] = total

	result, err := tensor.NewRaw(newShape, tensors[0].DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= first[i]
	}
	block := 1
	for i := dim + 1; i < len(first); i++ {
		block *= first[i]
	}

	dst := result.AsFloat32()
	for o := 0; o < outer; o++ {
		dstOff := o * total * block
		for _, t := range tensors {
			src := t.AsFloat32()
			n := t.Shape()[dim] * block
			copy(dst[dstOff:dstOff+n], src[o*n:(o+1)*n])
			dstOff += n
		}
	}

	return result
}
