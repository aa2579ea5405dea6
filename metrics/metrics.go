// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics provides classification metrics and metric series
// summaries.
package metrics

import (
	"github.com/chorus-ml/chorus/internal/metrics"
)

// ConfusionMatrix counts [trueClass][predictedClass] occurrences and
// derives precision, recall, and F1 from them.
type ConfusionMatrix = metrics.ConfusionMatrix

// NewConfusionMatrix creates an empty numClasses x numClasses matrix.
func NewConfusionMatrix(numClasses int) *ConfusionMatrix {
	return metrics.NewConfusionMatrix(numClasses)
}

// WeightedF1 computes the support-weighted F1 of a gold/prediction pairing.
func WeightedF1(gold, pred []int) (float64, error) {
	return metrics.WeightedF1(gold, pred)
}

// Summary holds the headline statistics of a metric series.
type Summary = metrics.Summary

// Summarize computes the summary of a non-empty metric series.
func Summarize(series []float64) (Summary, error) {
	return metrics.Summarize(series)
}
