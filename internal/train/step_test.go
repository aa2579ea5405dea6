package train

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorus-ml/chorus/internal/autodiff"
	"github.com/chorus-ml/chorus/internal/backend/cpu"
	"github.com/chorus-ml/chorus/internal/data"
	"github.com/chorus-ml/chorus/internal/metrics"
	"github.com/chorus-ml/chorus/internal/nn"
	"github.com/chorus-ml/chorus/internal/optim"
	"github.com/chorus-ml/chorus/internal/tensor"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newTestBackend() testBackend { return autodiff.New(cpu.New()) }

// scriptedModel returns pre-set logits per Forward call, cycling through
// its script. Logits pass through a scale parameter so gradients have a
// destination during training.
type scriptedModel struct {
	backend testBackend
	shape   tensor.Shape
	script  [][]float32
	calls   int
	scale   *nn.Parameter[testBackend]
}

func newScriptedModel(t *testing.T, backend testBackend, shape tensor.Shape, script [][]float32) *scriptedModel {
	t.Helper()
	one, err := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	return &scriptedModel{
		backend: backend,
		shape:   shape,
		script:  script,
		scale:   nn.NewParameter("scale", one),
	}
}

func (m *scriptedModel) Forward(batch data.Batch[testBackend], sub Subsampling) *Output[testBackend] {
	vals := m.script[m.calls%len(m.script)]
	m.calls++
	logits, err := tensor.FromSlice(vals, m.shape, m.backend)
	if err != nil {
		panic(err)
	}
	return &Output[testBackend]{LabelLogits: logits.Mul(m.scale.Tensor())}
}

func (m *scriptedModel) Parameters() []*nn.Parameter[testBackend] {
	return []*nn.Parameter[testBackend]{m.scale}
}

// scriptedLoss returns pre-set scalar losses per call. Only usable where no
// backward pass runs.
type scriptedLoss struct {
	backend testBackend
	losses  []float32
	calls   int
}

func (l *scriptedLoss) Forward(logits, targets *tensor.Tensor[float32, testBackend]) *tensor.Tensor[float32, testBackend] {
	v := l.losses[l.calls%len(l.losses)]
	l.calls++
	out, err := tensor.FromSlice([]float32{v}, tensor.Shape{1}, l.backend)
	if err != nil {
		panic(err)
	}
	return out
}

// recordSink captures every observation.
type recordSink struct {
	mu   sync.Mutex
	logs []map[string]float64
}

func (s *recordSink) Log(values map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, values)
}

// testBatches builds n identical two-sample batches with one-hot labels
// [class0, class1].
func testBatches(t *testing.T, backend testBackend, n int) data.SliceLoader[testBackend] {
	t.Helper()
	loader := make(data.SliceLoader[testBackend], 0, n)
	for i := 0; i < n; i++ {
		image, err := tensor.FromSlice(make([]float32, 2*4*4*1), tensor.Shape{2, 4, 4, 1}, backend)
		require.NoError(t, err)
		audio, err := tensor.FromSlice(make([]float32, 2*16), tensor.Shape{2, 16}, backend)
		require.NoError(t, err)
		label, err := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{2, 2}, backend)
		require.NoError(t, err)
		loader = append(loader, data.Batch[testBackend]{
			data.Image: image,
			data.Audio: audio,
			data.Label: label,
		})
	}
	return loader
}

var testRule = SubsampleRule{NumChunks: 4, SamplesPerPatch: 2}

func TestValStepReturnsEpochMeans(t *testing.T) {
	backend := newTestBackend()
	loader := testBatches(t, backend, 3)

	// Batch scripts: both correct (F1 1.0), both wrong (F1 0.0), both
	// correct again.
	model := newScriptedModel(t, backend, tensor.Shape{2, 2}, [][]float32{
		{2, 0, 0, 2},
		{0, 2, 2, 0},
		{2, 0, 0, 2},
	})
	loss := &scriptedLoss{backend: backend, losses: []float32{0.9, 0.6, 0.3}}

	avgLoss, avgF1, err := ValStep[testBackend](model, loader, loss, tensor.CPU, testRule, rand.New(rand.NewSource(1)), backend)
	require.NoError(t, err)

	assert.InDelta(t, (0.9+0.6+0.3)/3, avgLoss, 1e-6)
	assert.InDelta(t, (1.0+0.0+1.0)/3, avgF1, 1e-6)
}

func TestValStepLeavesRecordingOff(t *testing.T) {
	backend := newTestBackend()
	loader := testBatches(t, backend, 1)
	model := newScriptedModel(t, backend, tensor.Shape{2, 2}, [][]float32{{2, 0, 0, 2}})
	loss := &scriptedLoss{backend: backend, losses: []float32{0.5}}

	_, _, err := ValStep[testBackend](model, loader, loss, tensor.CPU, testRule, nil, backend)
	require.NoError(t, err)
	assert.False(t, backend.GetTape().IsRecording())
	assert.Equal(t, 0, backend.GetTape().NumOps())
}

func TestTrainStepUpdatesParametersAndLogs(t *testing.T) {
	backend := newTestBackend()
	loader := testBatches(t, backend, 2)
	model := newScriptedModel(t, backend, tensor.Shape{2, 2}, [][]float32{{2, 0, 0, 2}})
	loss := nn.NewCrossEntropyLoss(backend)
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1}, backend)
	sink := &recordSink{}

	before := model.scale.Tensor().Data()[0]
	avgLoss, avgF1, err := TrainStep[testBackend](model, loader, loss, opt, tensor.CPU, testRule, rand.New(rand.NewSource(1)), backend, sink)
	require.NoError(t, err)

	assert.Greater(t, avgLoss, 0.0)
	assert.InDelta(t, 1.0, avgF1, 1e-6, "scripted logits always predict the gold class")
	assert.NotEqual(t, before, model.scale.Tensor().Data()[0], "optimizer step must move the parameter")

	require.Len(t, sink.logs, 2, "one observation per batch")
	for _, obs := range sink.logs {
		assert.Contains(t, obs, "batch train loss")
	}
}

func TestTrainStepEmptyLoader(t *testing.T) {
	backend := newTestBackend()
	model := newScriptedModel(t, backend, tensor.Shape{2, 2}, [][]float32{{2, 0, 0, 2}})
	loss := nn.NewCrossEntropyLoss(backend)
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1}, backend)

	_, _, err := TrainStep[testBackend](model, data.SliceLoader[testBackend]{}, loss, opt, tensor.CPU, testRule, nil, backend, NopSink{})
	assert.Error(t, err)
}

func TestTestStepMatchesDirectWeightedF1(t *testing.T) {
	backend := newTestBackend()
	loader := testBatches(t, backend, 3)

	// Per batch of [class0, class1]: correct/correct, wrong/correct,
	// wrong/wrong.
	model := newScriptedModel(t, backend, tensor.Shape{2, 2}, [][]float32{
		{2, 0, 0, 2},
		{0, 2, 0, 2},
		{0, 2, 2, 0},
	})

	f1, gold, pred, err := TestStepWithLabels[testBackend](model, loader, tensor.CPU, testRule, rand.New(rand.NewSource(1)), backend)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, gold)
	assert.Equal(t, []int{0, 1, 1, 1, 1, 0}, pred)

	direct, err := metrics.WeightedF1(gold, pred)
	require.NoError(t, err)
	assert.InDelta(t, direct, f1, 1e-9, "aggregate F1 is computed once over concatenated labels")

	// The aggregate differs from the mean of per-batch scores here, which
	// is the point of the test variant.
	short, err := TestStep[testBackend](model, loader, tensor.CPU, testRule, rand.New(rand.NewSource(1)), backend)
	require.NoError(t, err)
	assert.InDelta(t, f1, short, 1e-9)
}
