// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"io"
	"math/rand"

	"go.uber.org/zap"

	"github.com/chorus-ml/chorus/internal/data"
	"github.com/chorus-ml/chorus/internal/optim"
	"github.com/chorus-ml/chorus/internal/tensor"
	"github.com/chorus-ml/chorus/internal/train"
)

// Backend is the gradient-capable backend a training loop runs on.
type Backend = train.Backend

// Subsampling types

// IndexRange is a half-open range [Start, End) of flattened positions.
type IndexRange = train.IndexRange

// Subsampling selects the output positions a forward pass decodes per
// modality. A nil entry means the modality is decoded in full.
type Subsampling = train.Subsampling

// SubsampleRule holds the chunking parameters shared by every step of a run.
type SubsampleRule = train.SubsampleRule

// Model contract

// Output is the typed result of a classifier forward pass.
type Output[B tensor.Backend] = train.Output[B]

// Classifier is a multimodal model trainable by this loop.
type Classifier[B tensor.Backend] = train.Classifier[B]

// Loss scores logits against one-hot targets, returning a scalar tensor.
type Loss[B tensor.Backend] = train.Loss[B]

// Steps

// TrainStep runs one training epoch and returns epoch-mean loss and
// weighted F1.
func TrainStep[B Backend](
	model Classifier[B],
	loader data.Loader[B],
	lossFn Loss[B],
	opt optim.Optimizer,
	device tensor.Device,
	rule SubsampleRule,
	rng *rand.Rand,
	backend B,
	sink MetricSink,
) (avgLoss, avgF1 float64, err error) {
	return train.TrainStep(model, loader, lossFn, opt, device, rule, rng, backend, sink)
}

// ValStep runs one validation epoch with no gradient computation or
// optimizer update.
func ValStep[B Backend](
	model Classifier[B],
	loader data.Loader[B],
	lossFn Loss[B],
	device tensor.Device,
	rule SubsampleRule,
	rng *rand.Rand,
	backend B,
) (avgLoss, avgF1 float64, err error) {
	return train.ValStep(model, loader, lossFn, device, rule, rng, backend)
}

// TestStep evaluates with a single weighted F1 over all concatenated gold
// and predicted labels.
func TestStep[B Backend](
	model Classifier[B],
	loader data.Loader[B],
	device tensor.Device,
	rule SubsampleRule,
	rng *rand.Rand,
	backend B,
) (float64, error) {
	return train.TestStep(model, loader, device, rule, rng, backend)
}

// TestStepWithLabels is TestStep returning the raw gold and predicted
// label lists alongside the score.
func TestStepWithLabels[B Backend](
	model Classifier[B],
	loader data.Loader[B],
	device tensor.Device,
	rule SubsampleRule,
	rng *rand.Rand,
	backend B,
) (float64, []int, []int, error) {
	return train.TestStepWithLabels(model, loader, device, rule, rng, backend)
}

// Orchestration

// Trainer wires a classifier, its data, loss and optimizer into an epoch
// loop with early stopping.
type Trainer[B Backend] = train.Trainer[B]

// Result is the outcome of a run.
type Result = train.Result

// History holds the per-epoch metric series of a run.
type History = train.History

// StoppingState tracks early stopping across epochs.
type StoppingState = train.StoppingState

// Status is the terminal state of a run.
type Status = train.Status

// Run status values.
const (
	Running   Status = train.Running
	Stopped   Status = train.Stopped
	Completed Status = train.Completed
)

// Metric sinks

// MetricSink receives numeric observations from the training loop.
type MetricSink = train.MetricSink

// NopSink discards all observations.
type NopSink = train.NopSink

// ZapSink emits each observation as a structured log record.
type ZapSink = train.ZapSink

// JSONLSink writes each observation as one JSON object per line.
type JSONLSink = train.JSONLSink

// NewJSONLSink creates a sink writing to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return train.NewJSONLSink(w)
}

// MultiSink fans each observation out to every sink.
type MultiSink = train.MultiSink

// NewZapSink creates a sink logging through the given logger.
func NewZapSink(logger *zap.Logger) ZapSink {
	return train.ZapSink{Logger: logger}
}

// Configuration and reporting

// Config is the yaml-serializable run configuration.
type Config = train.Config

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return train.DefaultConfig()
}

// LoadConfig reads a yaml config file, filling unset fields from defaults.
func LoadConfig(path string) (Config, error) {
	return train.LoadConfig(path)
}

// PlotHistory renders the loss and F1 curves of a run as a PNG file.
func PlotHistory(h *History, path string) error {
	return train.PlotHistory(h, path)
}
