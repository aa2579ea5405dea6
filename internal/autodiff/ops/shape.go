package ops

import "github.com/chorus-ml/chorus/internal/tensor"

// ReshapeOp records a reshape for autodiff.
// Backward reshapes the output gradient back to the input shape.
type ReshapeOp struct {
	input     *tensor.RawTensor
	output    *tensor.RawTensor
	origShape tensor.Shape
}

// NewReshapeOp creates a new Reshape operation.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{
		input:     input,
		output:    output,
		origShape: input.Shape(),
	}
}

// Inputs returns the input tensors.
func (op *ReshapeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward reshapes the output gradient back to the original shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.origShape)}
}

// TransposeOp records a dimension permutation for autodiff.
// Backward applies the inverse permutation to the output gradient.
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp creates a new Transpose operation. axes must be the
// resolved permutation used in the forward pass.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{
		input:  input,
		output: output,
		axes:   append([]int(nil), axes...),
	}
}

// Inputs returns the input tensors.
func (op *TransposeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *TransposeOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward applies the inverse permutation to the output gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// NarrowOp records a contiguous slice along a dimension for autodiff.
//
// Backward scatters the output gradient into a zero tensor of the input
// shape at [start, start+length) along dim.
type NarrowOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
	start  int
	length int
}

// NewNarrowOp creates a new Narrow operation.
func NewNarrowOp(input, output *tensor.RawTensor, dim, start, length int) *NarrowOp {
	return &NarrowOp{
		input:  input,
		output: output,
		dim:    dim,
		start:  start,
		length: length,
	}
}

// Inputs returns the input tensors.
func (op *NarrowOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *NarrowOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scatters the output gradient back into the input range.
func (op *NarrowOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	inputGrad, err := tensor.NewRaw(shape, op.input.DType(), backend.Device())
	if err != nil {
		panic(err)
	}

	outer := 1
	for i := 0; i < op.dim; i++ {
		outer *= shape[i]
	}
	block := 1
	for i := op.dim + 1; i < len(shape); i++ {
		block *= shape[i]
	}

	src := outputGrad.AsFloat32()
	dst := inputGrad.AsFloat32()
	for o := 0; o < outer; o++ {
		dstBase := (o*shape[op.dim] + op.start) * block
		srcBase := o * op.length * block
		copy(dst[dstBase:dstBase+op.length*block], src[srcBase:srcBase+op.length*block])
	}

	return []*tensor.RawTensor{inputGrad}
}

// CatOp records a concatenation along a dimension for autodiff.
//
// Backward splits the output gradient back into per-input slices.
type CatOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewCatOp creates a new Cat operation.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{
		inputs: append([]*tensor.RawTensor(nil), inputs...),
		output: output,
		dim:    dim,
	}
}

// Inputs returns the input tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *CatOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward narrows the output gradient into one slice per input.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, in := range op.inputs {
		length := in.Shape()[op.dim]
		grads[i] = backend.Narrow(outputGrad, op.dim, offset, length)
		offset += length
	}
	return grads
}
