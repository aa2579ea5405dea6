package ops

import "github.com/chorus-ml/chorus/internal/tensor"

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[1,4] + b[3,4] -> c[3,4]  (a was broadcast along dim 0)
//	Backward: grad_c[3,4] -> grad_a[1,4] (sum along dim 0)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Clone when shapes already match so later accumulation cannot alias.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// NumPy broadcasting aligns shapes from the right: sum away leading
	// dimensions the target does not have.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Sum along dimensions where the target is 1.
	for i, d := range targetShape {
		if d == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}

	return result
}

// negate returns -grad.
func negate(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	zeros, err := tensor.NewRaw(grad.Shape(), grad.DType(), backend.Device())
	if err != nil {
		panic(err)
	}
	return backend.Sub(zeros, grad)
}
