package train

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorus-ml/chorus/internal/nn"
	"github.com/chorus-ml/chorus/internal/optim"
	"github.com/chorus-ml/chorus/internal/tensor"
)

func TestStoppingStateCountsOnlyDecreases(t *testing.T) {
	s := &StoppingState{}

	assert.False(t, s.Observe(0.5, 3), "first epoch never counts against patience")
	assert.Equal(t, 0, s.NoImprove)

	assert.False(t, s.Observe(0.4, 3), "decrease increments")
	assert.Equal(t, 1, s.NoImprove)

	assert.False(t, s.Observe(0.6, 3), "increase does not decrement")
	assert.Equal(t, 1, s.NoImprove)

	assert.False(t, s.Observe(0.6, 3), "equal score is not a decrease")
	assert.Equal(t, 1, s.NoImprove)

	assert.False(t, s.Observe(0.5, 3))
	assert.True(t, s.Observe(0.4, 3), "halts when the counter first reaches patience")
	assert.Equal(t, 3, s.NoImprove)
}

func TestStoppingStateComparesToPreviousNotBest(t *testing.T) {
	s := &StoppingState{}
	s.Observe(0.9, 2)
	s.Observe(0.1, 2)
	// 0.2 beats the previous epoch's 0.1 even though it is far below the
	// best score seen, so the counter stays put.
	assert.False(t, s.Observe(0.2, 2))
	assert.Equal(t, 1, s.NoImprove)
}

// newTrainer wires a scripted model into a trainer. The script alternates
// between train and validation forward calls: with one batch per loader,
// even entries feed training and odd entries validation.
func newTrainer(t *testing.T, script [][]float32, epochs, patience int) (*Trainer[testBackend], *recordSink) {
	t.Helper()
	backend := newTestBackend()
	model := newScriptedModel(t, backend, tensor.Shape{2, 2}, script)
	sink := &recordSink{}
	return &Trainer[testBackend]{
		Model:       model,
		TrainLoader: testBatches(t, backend, 1),
		ValLoader:   testBatches(t, backend, 1),
		Loss:        nn.NewCrossEntropyLoss(backend),
		Optimizer:   optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01}, backend),
		Device:      tensor.CPU,
		Backend:     backend,
		Rule:        testRule,
		Epochs:      epochs,
		Patience:    patience,
		Rng:         rand.New(rand.NewSource(1)),
		Sink:        sink,
	}, sink
}

func TestTrainerHaltsOnPatienceAndDropsHaltingEpoch(t *testing.T) {
	// Validation F1 sequence [1.0, 0.0] with patience 1: the second
	// epoch's drop exhausts patience, so the run stops after epoch 2 with
	// only epoch 1 recorded.
	script := [][]float32{
		{2, 0, 0, 2}, // epoch 1 train
		{2, 0, 0, 2}, // epoch 1 val, F1 1.0
		{2, 0, 0, 2}, // epoch 2 train
		{0, 2, 2, 0}, // epoch 2 val, F1 0.0
	}
	trainer, sink := newTrainer(t, script, 5, 1)

	res, err := trainer.Run()
	require.NoError(t, err)

	assert.Equal(t, Stopped, res.Status)
	assert.Equal(t, 1, res.History.Epochs(), "the halting epoch's metrics are not recorded")
	assert.InDelta(t, 1.0, res.History.ValF1[0], 1e-6)
	assert.Equal(t, 1, res.Stopping.NoImprove)
	assert.NotEmpty(t, res.RunID)

	// Two per-batch train observations plus one epoch summary for the
	// recorded epoch only.
	epochLogs := 0
	for _, obs := range sink.logs {
		if _, ok := obs["epoch"]; ok {
			epochLogs++
		}
	}
	assert.Equal(t, 1, epochLogs)
}

func TestTrainerCompletesEpochBudget(t *testing.T) {
	script := [][]float32{{2, 0, 0, 2}}
	trainer, sink := newTrainer(t, script, 3, 2)

	res, err := trainer.Run()
	require.NoError(t, err)

	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, 3, res.History.Epochs())
	assert.Equal(t, 0, res.Stopping.NoImprove, "constant validation F1 never counts as a decrease")

	epochs := []float64{}
	for _, obs := range sink.logs {
		if e, ok := obs["epoch"]; ok {
			epochs = append(epochs, e)
		}
	}
	assert.Equal(t, []float64{0, 1, 2}, epochs)
}

func TestTrainerZeroPatienceDisablesEarlyStopping(t *testing.T) {
	// Strictly decreasing validation F1; without the patience gate the
	// run still exhausts its epoch budget.
	script := [][]float32{
		{2, 0, 0, 2},
		{2, 0, 0, 2}, // val F1 1.0
		{2, 0, 0, 2},
		{0, 2, 0, 2}, // val F1 drops
		{2, 0, 0, 2},
		{0, 2, 2, 0}, // val F1 drops again
	}
	trainer, _ := newTrainer(t, script, 3, 0)

	res, err := trainer.Run()
	require.NoError(t, err)
	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, 3, res.History.Epochs())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "completed", Completed.String())
}
