package ops

import (
	"fmt"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// SumOp reduces a tensor to its scalar total: output = sum(x).
//
// Backward: every element contributed with weight 1, so the scalar output
// gradient is broadcast to the input shape.
type SumOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward fills the input shape with the scalar output gradient.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]

	grad, err := tensor.NewRaw(x.Shape(), tensor.Float32, x.Device())
	if err != nil {
		panic(fmt.Sprintf("sum backward: %v", err))
	}

	g := outputGrad.AsFloat32()[0]
	data := grad.AsFloat32()
	for i := range data {
		data[i] = g
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns the input tensors [x].
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the scalar sum.
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}

// SumDimOp reduces along one dimension: output = sum(x, dim).
//
// Backward: the output gradient repeats across the reduced dimension.
type SumDimOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewSumDimOp creates a new SumDimOp. dim must already be normalized.
func NewSumDimOp(x, output *tensor.RawTensor, dim int) *SumDimOp {
	return &SumDimOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
		dim:    dim,
	}
}

// Backward repeats the output gradient along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	shape := x.Shape()

	grad, err := tensor.NewRaw(shape, tensor.Float32, x.Device())
	if err != nil {
		panic(fmt.Sprintf("sumdim backward: %v", err))
	}

	outer := 1
	for i := 0; i < op.dim; i++ {
		outer *= shape[i]
	}
	inner := 1
	for i := op.dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	dimSize := shape[op.dim]

	src := outputGrad.AsFloat32()
	dst := grad.AsFloat32()
	for o := 0; o < outer; o++ {
		for d := 0; d < dimSize; d++ {
			for in := 0; in < inner; in++ {
				dst[(o*dimSize+d)*inner+in] = src[o*inner+in]
			}
		}
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns the input tensors [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}
