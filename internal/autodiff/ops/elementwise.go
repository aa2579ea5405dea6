package ops

import "github.com/chorus-ml/chorus/internal/tensor"

// AddOp represents element-wise addition: output = a + b.
//
// Backward: d(a+b)/da = d(a+b)/db = 1, so the output gradient flows to both
// inputs, reduced along any broadcast dimensions.
type AddOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{
		inputs: []*tensor.RawTensor{a, b},
		output: output,
	}
}

// Backward computes input gradients for addition.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := reduceBroadcast(outputGrad, a.Shape(), backend)
	gradB := reduceBroadcast(outputGrad, b.Shape(), backend)
	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns the input tensors [a, b].
func (op *AddOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor a + b.
func (op *AddOp) Output() *tensor.RawTensor {
	return op.output
}

// SubOp represents element-wise subtraction: output = a - b.
type SubOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSubOp creates a new SubOp.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{
		inputs: []*tensor.RawTensor{a, b},
		output: output,
	}
}

// Backward computes input gradients for subtraction.
// d(a-b)/da = 1, d(a-b)/db = -1.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := reduceBroadcast(outputGrad, a.Shape(), backend)
	gradB := reduceBroadcast(negate(outputGrad, backend), b.Shape(), backend)
	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns the input tensors [a, b].
func (op *SubOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor a - b.
func (op *SubOp) Output() *tensor.RawTensor {
	return op.output
}

// MulOp represents element-wise multiplication: output = a * b.
type MulOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewMulOp creates a new MulOp.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{
		inputs: []*tensor.RawTensor{a, b},
		output: output,
	}
}

// Backward computes input gradients for multiplication.
// d(a*b)/da = b, d(a*b)/db = a.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := reduceBroadcast(backend.Mul(outputGrad, b), a.Shape(), backend)
	gradB := reduceBroadcast(backend.Mul(outputGrad, a), b.Shape(), backend)
	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns the input tensors [a, b].
func (op *MulOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor a * b.
func (op *MulOp) Output() *tensor.RawTensor {
	return op.output
}
