package optim

import (
	"github.com/chorus-ml/chorus/internal/nn"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]][]float32
	backend    B
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]][]float32),
		backend:    backend,
	}
}

// Step performs a single optimization step. Parameters with no gradient
// (not part of the computation graph) are skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		gradData := grad.AsFloat32()
		paramData := param.Tensor().Raw().AsFloat32()

		if s.momentum == 0 {
			for i := range paramData {
				paramData[i] -= s.lr * gradData[i]
			}
			continue
		}

		velocity, exists := s.velocities[param]
		if !exists {
			velocity = make([]float32, len(paramData))
			s.velocities[param] = velocity
		}

		for i := range paramData {
			velocity[i] = s.momentum*velocity[i] + gradData[i]
			paramData[i] -= s.lr * velocity[i]
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate. Useful for scheduling.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}
