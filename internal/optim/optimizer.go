// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR: 0.001,
//	}, backend)
//
//	for epoch := range epochs {
//	    loss := criterion.Forward(model.Forward(input), targets)
//	    grads := autodiff.Backward(loss, backend)
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"github.com/chorus-ml/chorus/internal/nn"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	// Takes the gradient map produced by the tape's backward pass.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients. Call before each backward
	// pass to prevent accumulation from previous iterations.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// getGradient retrieves the gradient for a parameter, or nil if the
// parameter was not part of the computation graph.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
