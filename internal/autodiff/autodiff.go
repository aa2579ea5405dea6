// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and adds gradient
// tracking through a GradientTape:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend
//   - GradientTape: records operations during the forward pass
//   - Operation interface: each op implements its own backward pass
//   - Reverse-mode AD: gradients via the chain rule, walking the tape backwards
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	// ... forward pass ...
//	grads := autodiff.Backward(loss, backend)
package autodiff

import (
	"fmt"

	"github.com/chorus-ml/chorus/internal/autodiff/ops"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations
// in a GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control: starting/stopping
// recording and clearing between iterations.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(x, y, result))
	}
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(x, y, result))
	}
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(x, y, result))
	}
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMatMulOp(x, y, result))
	}
	return result
}

// Reshape changes the tensor shape and records the operation.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(t, result))
	}
	return result
}

// Transpose permutes dimensions and records the operation.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	ndim := len(t.Shape())
	resolved := axes
	if len(resolved) == 0 {
		resolved = make([]int, ndim)
		for i := range resolved {
			resolved[i] = ndim - 1 - i
		}
	}
	result := b.inner.Transpose(t, resolved...)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(t, result, resolved))
	}
	return result
}

// Narrow slices along a dimension and records the operation.
func (b *AutodiffBackend[B]) Narrow(t *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	result := b.inner.Narrow(t, dim, start, length)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewNarrowOp(t, result, dim, start, length))
	}
	return result
}

// Cat concatenates tensors along a dimension and records the operation.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	result := b.inner.Cat(tensors, dim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewCatOp(tensors, result, dim))
	}
	return result
}

// Softmax delegates to the inner backend. It is used for prediction
// post-processing only and is not differentiated; the loss uses the fused
// cross-entropy instead.
func (b *AutodiffBackend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Softmax(x, dim)
}

// Sum reduces to a scalar and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sum(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumOp(x, result))
	}
	return result
}

// SumDim reduces along a dimension and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.inner.SumDim(x, dim, keepDim)
	if b.tape.IsRecording() {
		if dim < 0 {
			dim = len(x.Shape()) + dim
		}
		b.tape.Record(ops.NewSumDimOp(x, result, dim))
	}
	return result
}

// Argmax delegates to the inner backend (not differentiable).
func (b *AutodiffBackend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// ReLU applies the activation and records the operation. The inner backend
// must implement ReLU.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	type reluBackend interface {
		ReLU(*tensor.RawTensor) *tensor.RawTensor
	}
	inner, ok := any(b.inner).(reluBackend)
	if !ok {
		panic(fmt.Sprintf("autodiff: inner backend %s does not implement ReLU", b.inner.Name()))
	}

	result := inner.ReLU(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReLUOp(x, result))
	}
	return result
}

// CrossEntropy computes mean cross-entropy of logits against one-hot
// targets and records the fused softmax + NLL operation.
func (b *AutodiffBackend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	result := ops.CrossEntropyForward(logits, targets, b.Device())
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewCrossEntropyOp(logits, targets, result))
	}
	return result
}
