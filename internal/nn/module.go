// Package nn implements neural network building blocks for the Chorus toolkit.
//
// This package provides:
//   - Module interface: base interface for all NN components
//   - Parameter: trainable parameters
//   - Linear: fully connected layer
//   - ReLU activation
//   - CrossEntropyLoss against one-hot targets
package nn

import (
	"github.com/chorus-ml/chorus/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without trainable
	// parameters return an empty slice.
	Parameters() []*Parameter[B]
}
