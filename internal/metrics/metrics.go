// Package metrics implements classification metrics over integer class
// labels. Scores are computed from a confusion matrix accumulated on the
// CPU after predictions have been argmax-reduced.
package metrics

import "fmt"

// ConfusionMatrix counts [trueClass][predictedClass] occurrences.
type ConfusionMatrix struct {
	NumClasses int
	Counts     [][]int
	Total      int
}

// NewConfusionMatrix creates an empty numClasses x numClasses matrix.
func NewConfusionMatrix(numClasses int) *ConfusionMatrix {
	counts := make([][]int, numClasses)
	for i := range counts {
		counts[i] = make([]int, numClasses)
	}
	return &ConfusionMatrix{NumClasses: numClasses, Counts: counts}
}

// Update adds one gold/prediction pair per index. Slices must have equal
// length and entries must be valid class indices.
func (cm *ConfusionMatrix) Update(gold, pred []int) error {
	if len(gold) != len(pred) {
		return fmt.Errorf("metrics: gold has %d entries, pred has %d", len(gold), len(pred))
	}
	for i := range gold {
		g, p := gold[i], pred[i]
		if g < 0 || g >= cm.NumClasses {
			return fmt.Errorf("metrics: gold label %d out of range [0, %d)", g, cm.NumClasses)
		}
		if p < 0 || p >= cm.NumClasses {
			return fmt.Errorf("metrics: predicted label %d out of range [0, %d)", p, cm.NumClasses)
		}
		cm.Counts[g][p]++
		cm.Total++
	}
	return nil
}

// Reset zeroes all counts.
func (cm *ConfusionMatrix) Reset() {
	for i := range cm.Counts {
		for j := range cm.Counts[i] {
			cm.Counts[i][j] = 0
		}
	}
	cm.Total = 0
}

// Support returns the number of gold samples of class c.
func (cm *ConfusionMatrix) Support(c int) int {
	n := 0
	for j := 0; j < cm.NumClasses; j++ {
		n += cm.Counts[c][j]
	}
	return n
}

// Precision returns tp/(tp+fp) for class c, 0 when the class was never
// predicted.
func (cm *ConfusionMatrix) Precision(c int) float64 {
	predicted := 0
	for i := 0; i < cm.NumClasses; i++ {
		predicted += cm.Counts[i][c]
	}
	if predicted == 0 {
		return 0
	}
	return float64(cm.Counts[c][c]) / float64(predicted)
}

// Recall returns tp/(tp+fn) for class c, 0 when the class has no gold
// samples.
func (cm *ConfusionMatrix) Recall(c int) float64 {
	support := cm.Support(c)
	if support == 0 {
		return 0
	}
	return float64(cm.Counts[c][c]) / float64(support)
}

// F1 returns the harmonic mean of precision and recall for class c.
func (cm *ConfusionMatrix) F1(c int) float64 {
	p, r := cm.Precision(c), cm.Recall(c)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// WeightedF1 averages per-class F1 scores weighted by class support.
// Classes without gold samples contribute nothing to the average.
func (cm *ConfusionMatrix) WeightedF1() float64 {
	if cm.Total == 0 {
		return 0
	}
	sum := 0.0
	for c := 0; c < cm.NumClasses; c++ {
		sum += cm.F1(c) * float64(cm.Support(c))
	}
	return sum / float64(cm.Total)
}

// Accuracy returns the fraction of correctly classified samples.
func (cm *ConfusionMatrix) Accuracy() float64 {
	if cm.Total == 0 {
		return 0
	}
	correct := 0
	for c := 0; c < cm.NumClasses; c++ {
		correct += cm.Counts[c][c]
	}
	return float64(correct) / float64(cm.Total)
}

// WeightedF1 computes the support-weighted F1 of a single gold/prediction
// pairing. numClasses is inferred from the largest label present.
func WeightedF1(gold, pred []int) (float64, error) {
	numClasses := 0
	for _, g := range gold {
		if g+1 > numClasses {
			numClasses = g + 1
		}
	}
	for _, p := range pred {
		if p+1 > numClasses {
			numClasses = p + 1
		}
	}
	if numClasses == 0 {
		return 0, fmt.Errorf("metrics: no samples")
	}
	cm := NewConfusionMatrix(numClasses)
	if err := cm.Update(gold, pred); err != nil {
		return 0, err
	}
	return cm.WeightedF1(), nil
}
