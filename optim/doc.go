// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers.
//
// Optimizers apply gradient maps produced by autodiff.Backward to a
// module's parameters:
//
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
package optim
