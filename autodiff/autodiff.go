// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// It wraps any backend with a gradient tape that records operations during
// the forward pass and replays them in reverse to compute gradients.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := criterion.Forward(model.Forward(x), y)
//	grads := autodiff.Backward(loss, backend)
package autodiff

import (
	"github.com/chorus-ml/chorus/internal/autodiff"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// Backend is the autodiff-enabled backend decorator.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is the interface of backends that support a backward pass.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients for a scalar output tensor, seeding the
// output gradient with ones.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
