package nn

import (
	"fmt"
	"math/rand"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//
// Weights use Xavier initialization; biases start at zero.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features]
	backend     B
}

// NewLinear creates a new Linear layer. A nil rng falls back to the global
// math/rand source for weight initialization.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	weightShape := tensor.Shape{outFeatures, inFeatures}
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, weightShape, rng, backend))

	bias := NewParameter("bias", tensor.Zeros[float32](tensor.Shape{outFeatures}, backend))

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes y = x @ W.T + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	w := l.weight.Tensor()  // [out_features, in_features]
	wT := w.Transpose()     // [in_features, out_features]
	output := input.MatMul(wT)

	// Broadcast bias across the batch dimension.
	b := l.bias.Tensor().Reshape(1, l.outFeatures)
	return output.Add(b)
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}
