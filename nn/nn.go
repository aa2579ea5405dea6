// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/chorus-ml/chorus/internal/nn"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// Module defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization. A nil
// rng falls back to the global math/rand source.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, rng, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Losses

// CrossEntropyLoss computes mean cross-entropy of logits against one-hot
// targets.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a new cross-entropy criterion.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss(backend)
}

// Initialization

// Xavier draws weights from the Glorot uniform distribution.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, rng, backend)
}
