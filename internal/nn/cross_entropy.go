package nn

import (
	"math"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// CrossEntropyLoss computes mean cross-entropy for multi-class
// classification against one-hot (or soft) target rows.
//
// It uses the LogSoftmax + NLL decomposition with the log-sum-exp trick
// for numerical stability:
//
//	Loss = mean_b( -Σ_i targets[b,i] * log_softmax(logits[b])[i] )
//
// Gradient (via the autodiff backend's fused op):
//
//	∂L/∂logits = (softmax(logits) - targets) / batch_size
//
// Usage:
//
//	criterion := nn.NewCrossEntropyLoss[Backend](backend)
//	loss := criterion.Forward(logits, oneHotLabels)
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// Forward computes the scalar mean loss over the batch.
//
// Parameters:
//   - logits: [batch_size, num_classes], raw unnormalized scores
//   - targets: [batch_size, num_classes], one-hot rows
//
// When the backend is autodiff-aware, the fused operation is recorded on
// the tape for gradient computation.
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	type crossEntropyBackend interface {
		CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
	}

	if adBackend, ok := any(c.backend).(crossEntropyBackend); ok {
		resultRaw := adBackend.CrossEntropy(logits.Raw(), targets.Raw())
		return tensor.New[float32, B](resultRaw, c.backend)
	}

	// Fallback for non-autodiff backends.
	shape := logits.Shape()
	if len(shape) != 2 {
		panic("CrossEntropyLoss: logits must be 2D [batch_size, num_classes]")
	}
	if !targets.Shape().Equal(shape) {
		panic("CrossEntropyLoss: targets must match logits shape (one-hot rows)")
	}

	batchSize, numClasses := shape[0], shape[1]
	logitsData := logits.Raw().AsFloat32()
	targetsData := targets.Raw().AsFloat32()

	totalLoss := float32(0)
	for b := 0; b < batchSize; b++ {
		row := logitsData[b*numClasses : (b+1)*numClasses]
		logProbs := logSoftmax(row)
		for i := 0; i < numClasses; i++ {
			if t := targetsData[b*numClasses+i]; t != 0 {
				totalLoss += -t * logProbs[i]
			}
		}
	}

	lossRaw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, c.backend.Device())
	if err != nil {
		panic(err)
	}
	lossRaw.AsFloat32()[0] = totalLoss / float32(batchSize)
	return tensor.New[float32, B](lossRaw, c.backend)
}

// Parameters returns an empty slice (loss functions have no trainable parameters).
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return nil
}

// logSoftmax computes log-softmax for a single row using log-sum-exp.
func logSoftmax(logits []float32) []float32 {
	n := len(logits)
	result := make([]float32, n)

	maxVal := logits[0]
	for i := 1; i < n; i++ {
		if logits[i] > maxVal {
			maxVal = logits[i]
		}
	}

	sumExp := float32(0)
	for i := 0; i < n; i++ {
		sumExp += float32(math.Exp(float64(logits[i] - maxVal)))
	}
	logSumExp := maxVal + float32(math.Log(float64(sumExp)))

	for i := 0; i < n; i++ {
		result[i] = logits[i] - logSumExp
	}
	return result
}
