package train

import (
	"fmt"
	"math/rand"

	"github.com/chorus-ml/chorus/internal/autodiff"
	"github.com/chorus-ml/chorus/internal/data"
	"github.com/chorus-ml/chorus/internal/metrics"
	"github.com/chorus-ml/chorus/internal/optim"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// TrainStep runs one training epoch: for every batch it generates a fresh
// subsampling, runs forward and backward, applies the optimizer, and emits
// the batch loss to the sink. Returns the arithmetic mean of per-batch loss
// and weighted F1 (mean over batches, not over samples).
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
	n := loader.Len()
	if n == 0 {
		return 0, 0, fmt.Errorf("train: empty loader")
	}

	tape := backend.GetTape()
	lossSum, f1Sum := 0.0, 0.0

	for i := 0; i < n; i++ {
		batch := loader.Batch(i).To(device)
		sub := rule.Generate(rng, batch[data.Image].Shape(), batch[data.Audio].Shape())

		tape.Clear()
		tape.StartRecording()
		out := model.Forward(batch, sub)
		logits := out.LabelLogits
		targets := batch[data.Label]
		loss := lossFn.Forward(logits, targets)
		tape.StopRecording()

		batchLoss := float64(loss.Item())
		lossSum += batchLoss

		opt.ZeroGrad()
		grads := autodiff.Backward(loss, backend)
		opt.Step(grads)
		tape.Clear()

		f1, err := batchF1(logits, targets)
		if err != nil {
			return 0, 0, fmt.Errorf("train: batch %d: %w", i, err)
		}
		f1Sum += f1

		sink.Log(map[string]float64{"batch train loss": batchLoss})
	}

	return lossSum / float64(n), f1Sum / float64(n), nil
}

// ValStep runs one validation epoch: same per-batch flow as TrainStep but
// with recording disabled, no optimizer update and no per-batch logging.
func ValStep[B Backend](
	model Classifier[B],
	loader data.Loader[B],
	lossFn Loss[B],
	device tensor.Device,
	rule SubsampleRule,
	rng *rand.Rand,
	backend B,
) (avgLoss, avgF1 float64, err error) {
	n := loader.Len()
	if n == 0 {
		return 0, 0, fmt.Errorf("val: empty loader")
	}

	restore := pauseRecording(backend)
	defer restore()

	lossSum, f1Sum := 0.0, 0.0
	for i := 0; i < n; i++ {
		batch := loader.Batch(i).To(device)
		sub := rule.Generate(rng, batch[data.Image].Shape(), batch[data.Audio].Shape())

		out := model.Forward(batch, sub)
		logits := out.LabelLogits
		targets := batch[data.Label]

		loss := lossFn.Forward(logits, targets)
		lossSum += float64(loss.Item())

		f1, err := batchF1(logits, targets)
		if err != nil {
			return 0, 0, fmt.Errorf("val: batch %d: %w", i, err)
		}
		f1Sum += f1
	}

	return lossSum / float64(n), f1Sum / float64(n), nil
}

// TestStep evaluates the model over the full loader and returns the
// weighted F1 computed once over all concatenated gold and predicted
// labels, not a mean of per-batch scores.
func TestStep[B Backend](
	model Classifier[B],
	loader data.Loader[B],
	device tensor.Device,
	rule SubsampleRule,
	rng *rand.Rand,
	backend B,
) (float64, error) {
	f1, _, _, err := TestStepWithLabels(model, loader, device, rule, rng, backend)
	return f1, err
}

// TestStepWithLabels is TestStep returning the raw gold and predicted
// label lists alongside the aggregate score.
func TestStepWithLabels[B Backend](
	model Classifier[B],
	loader data.Loader[B],
	device tensor.Device,
	rule SubsampleRule,
	rng *rand.Rand,
	backend B,
) (float64, []int, []int, error) {
	restore := pauseRecording(backend)
	defer restore()

	var gold, pred []int
	for i := 0; i < loader.Len(); i++ {
		batch := loader.Batch(i).To(device)
		sub := rule.Generate(rng, batch[data.Image].Shape(), batch[data.Audio].Shape())

		out := model.Forward(batch, sub)
		pred = append(pred, toInts(out.LabelLogits.Argmax(1).Data())...)
		gold = append(gold, toInts(batch[data.Label].Argmax(1).Data())...)
	}

	f1, err := metrics.WeightedF1(gold, pred)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("test: %w", err)
	}
	return f1, gold, pred, nil
}

// pauseRecording disables tape recording and returns a func restoring the
// previous state.
func pauseRecording[B Backend](backend B) func() {
	tape := backend.GetTape()
	was := tape.IsRecording()
	tape.StopRecording()
	return func() {
		if was {
			tape.StartRecording()
		}
	}
}

// batchF1 scores one batch: predictions are argmax over softmaxed logits,
// gold labels argmax over the one-hot targets.
func batchF1[B tensor.Backend](logits, targets *tensor.Tensor[float32, B]) (float64, error) {
	pred := toInts(logits.Softmax(1).Argmax(1).Data())
	gold := toInts(targets.Argmax(1).Data())
	return metrics.WeightedF1(gold, pred)
}

func toInts(v []int32) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}
