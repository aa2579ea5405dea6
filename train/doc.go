// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the supervised training loop for multimodal
// classifiers: chunked input subsampling, per-epoch train and validation
// passes, weighted F1 scoring, early stopping, and metric logging.
//
// Example:
//
//	trainer := &train.Trainer[B]{
//	    Model:       model,
//	    TrainLoader: trainLoader,
//	    ValLoader:   valLoader,
//	    Loss:        nn.NewCrossEntropyLoss(backend),
//	    Optimizer:   optim.NewAdam(model.Parameters(), optim.AdamConfig{}, backend),
//	    Device:      tensor.CPU,
//	    Backend:     backend,
//	    Rule:        train.SubsampleRule{NumChunks: 32, SamplesPerPatch: 16},
//	    Epochs:      10,
//	    Patience:    3,
//	}
//	result, err := trainer.Run()
package train
