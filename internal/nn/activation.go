package nn

import (
	"github.com/chorus-ml/chorus/internal/tensor"
)

// ReLUBackend is an interface for backends that support ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU is a Rectified Linear Unit activation module: f(x) = max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()

	if reluBackend, ok := any(backend).(ReLUBackend); ok {
		return tensor.New[float32, B](reluBackend.ReLU(input.Raw()), backend)
	}

	panic("ReLU: backend must implement ReLU operation")
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}
