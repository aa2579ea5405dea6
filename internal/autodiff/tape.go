package autodiff

import (
	"github.com/chorus-ml/chorus/internal/autodiff/ops"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic
// differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(outputGrad, backend)
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape if recording is enabled.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients for all inputs by walking the tape in reverse.
//
// Algorithm:
//  1. Seed the gradient of the final output (typically ones for scalar loss)
//  2. Walk operations in reverse order
//  3. For each operation, compute input gradients via the chain rule
//  4. Accumulate gradients when the same tensor feeds multiple operations
//
// Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	if len(t.operations) == 0 {
		return make(map[*tensor.RawTensor]*tensor.RawTensor)
	}

	// Stop recording so gradient computation is not itself recorded.
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)

	lastOp := t.operations[len(t.operations)-1]
	grads[lastOp.Output()] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]

		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}

		inputGrads := op.Backward(outGrad, backend)
		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}

	return grads
}
