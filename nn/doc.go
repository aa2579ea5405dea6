// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks: layers, activations,
// losses, and parameter management.
//
// Modules hold Parameters and implement Forward; optimizers consume the
// parameter list returned by Parameters().
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	layer := nn.NewLinear(128, 10, rng, backend)
//	logits := layer.Forward(features)
package nn
