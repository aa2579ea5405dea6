// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/chorus-ml/chorus/internal/nn"
	"github.com/chorus-ml/chorus/internal/optim"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// Optimizer defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(
//	    model.Parameters(),
//	    optim.SGDConfig{LR: 0.01, Momentum: 0.9},
//	    backend,
//	)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGD(params, config, backend)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig contains configuration for the Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(
//	    model.Parameters(),
//	    optim.AdamConfig{LR: 0.001},
//	    backend,
//	)
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdam(params, config, backend)
}
