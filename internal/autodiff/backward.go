package autodiff

import (
	"fmt"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients for a scalar output tensor using the
// backend's tape, seeding the output gradient with ones.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.GetTape().StartRecording()
//	loss := criterion.Forward(model.Forward(x), y)
//	grads := autodiff.Backward(loss, backend)
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()

	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	outputGrad, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}

	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("backward: unsupported dtype %s", t.DType()))
	}
	data := outputGrad.AsFloat32()
	for i := range data {
		data[i] = 1.0
	}

	return tape.Backward(outputGrad, backend)
}
