package ops

import (
	"fmt"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// ReLUOp represents a ReLU activation: output = max(0, x).
//
// Backward: d(ReLU(x))/dx = 1 if x > 0, else 0.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{
		input:  input,
		output: output,
	}
}

// Backward masks the output gradient by the positive entries of the input.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("relu: failed to create mask: %v", err))
	}

	inputData := op.input.AsFloat32()
	maskData := mask.AsFloat32()
	for i, val := range inputData {
		if val > 0 {
			maskData[i] = 1.0
		}
	}

	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

// Inputs returns the input tensor [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor {
	return op.output
}
