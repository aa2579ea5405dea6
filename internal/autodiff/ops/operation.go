// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation records its inputs and output during the forward pass and
// computes input gradients during the backward pass.
package ops

import "github.com/chorus-ml/chorus/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
