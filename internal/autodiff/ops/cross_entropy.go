package ops

import (
	"math"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// CrossEntropyOp represents cross-entropy loss against one-hot (or soft)
// targets, fused with softmax for numerical stability.
//
// Forward:
//
//	Loss = mean_b( -Σ_i targets[b,i] * log_softmax(logits[b])[i] )
//
// Backward:
//
//	∂L/∂logits = (softmax(logits) - targets) / batch_size
//
// Targets receive no gradient; they are labels, not parameters.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor // [batch_size, num_classes]
	targets *tensor.RawTensor // [batch_size, num_classes], one-hot rows
	output  *tensor.RawTensor // scalar loss
}

// NewCrossEntropyOp creates a new cross-entropy operation.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		logits:  logits,
		targets: targets,
		output:  output,
	}
}

// Inputs returns the input tensors (logits only; targets are constants).
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the scalar loss tensor.
func (op *CrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes (softmax(logits) - targets) / batch_size, scaled by the
// upstream gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	if len(shape) != 2 {
		panic("CrossEntropyOp: backward only supports 2D logits [batch_size, num_classes]")
	}
	batchSize, numClasses := shape[0], shape[1]

	logitsGrad, err := tensor.NewRaw(shape, op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(err)
	}

	logitsData := op.logits.AsFloat32()
	targetsData := op.targets.AsFloat32()
	gradData := logitsGrad.AsFloat32()
	gradScale := outputGrad.AsFloat32()[0]

	for b := 0; b < batchSize; b++ {
		row := logitsData[b*numClasses : (b+1)*numClasses]
		probs := softmaxRow(row)
		for i := 0; i < numClasses; i++ {
			grad := probs[i] - targetsData[b*numClasses+i]
			gradData[b*numClasses+i] = gradScale * grad / float32(batchSize)
		}
	}

	return []*tensor.RawTensor{logitsGrad}
}

// CrossEntropyForward computes the mean cross-entropy of logits against
// one-hot targets. Helper shared by the autodiff backend and the plain
// nn fallback.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic("CrossEntropyForward: logits must be 2D [batch_size, num_classes]")
	}
	if !targets.Shape().Equal(shape) {
		panic("CrossEntropyForward: targets must match logits shape (one-hot rows)")
	}

	batchSize, numClasses := shape[0], shape[1]

	output, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), device)
	if err != nil {
		panic(err)
	}

	logitsData := logits.AsFloat32()
	targetsData := targets.AsFloat32()

	totalLoss := float32(0)
	for b := 0; b < batchSize; b++ {
		row := logitsData[b*numClasses : (b+1)*numClasses]
		logProbs := logSoftmaxRow(row)
		for i := 0; i < numClasses; i++ {
			if t := targetsData[b*numClasses+i]; t != 0 {
				totalLoss += -t * logProbs[i]
			}
		}
	}

	output.AsFloat32()[0] = totalLoss / float32(batchSize)
	return output
}

// softmaxRow computes softmax for a single row with the max-shift trick.
func softmaxRow(logits []float32) []float32 {
	n := len(logits)
	probs := make([]float32, n)

	maxVal := logits[0]
	for i := 1; i < n; i++ {
		if logits[i] > maxVal {
			maxVal = logits[i]
		}
	}

	sumExp := float32(0)
	for i := 0; i < n; i++ {
		probs[i] = float32(math.Exp(float64(logits[i] - maxVal)))
		sumExp += probs[i]
	}

	for i := 0; i < n; i++ {
		probs[i] /= sumExp
	}
	return probs
}

// logSoftmaxRow computes log-softmax for a single row via log-sum-exp.
func logSoftmaxRow(logits []float32) []float32 {
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
