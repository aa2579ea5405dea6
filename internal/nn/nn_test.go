package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chorus-ml/chorus/internal/autodiff"
	"github.com/chorus-ml/chorus/internal/backend/cpu"
	"github.com/chorus-ml/chorus/internal/nn"
	"github.com/chorus-ml/chorus/internal/tensor"
)

func TestLinearForwardShapeAndValues(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, rand.New(rand.NewSource(1)), backend)

	// Overwrite the initialized weights with known values.
	copy(layer.Weight().Tensor().Data(), []float32{1, 0, 0, 0, 1, 0})
	copy(layer.Bias().Tensor().Data(), []float32{10, 20})

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	out := layer.Forward(input)
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{11, 22, 14, 25}, out.Data())
}

func TestLinearRejectsWrongInput(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, nil, backend)

	bad, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)
	assert.Panics(t, func() { layer.Forward(bad) })
}

func TestLinearParameters(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(4, 3, rand.New(rand.NewSource(2)), backend)

	params := layer.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "weight", params[0].Name())
	assert.Equal(t, "bias", params[1].Name())
	assert.True(t, params[0].Tensor().Shape().Equal(tensor.Shape{3, 4}))
	assert.True(t, params[1].Tensor().Shape().Equal(tensor.Shape{3}))

	for _, v := range params[1].Tensor().Data() {
		assert.Zero(t, v, "bias starts at zero")
	}
}

func TestXavierBoundsAndDeterminism(t *testing.T) {
	backend := cpu.New()
	bound := float32(math.Sqrt(6.0 / (8 + 4)))

	a := nn.Xavier(8, 4, tensor.Shape{4, 8}, rand.New(rand.NewSource(3)), backend)
	for _, v := range a.Data() {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}

	b := nn.Xavier(8, 4, tensor.Shape{4, 8}, rand.New(rand.NewSource(3)), backend)
	assert.Equal(t, a.Data(), b.Data(), "same seed gives same init")
}

func TestReLUModule(t *testing.T) {
	backend := autodiff.New(cpu.New())
	relu := nn.NewReLU[*autodiff.AutodiffBackend[*cpu.CPUBackend]]()

	input, err := tensor.FromSlice([]float32{-1, 0, 2, -3}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out := relu.Forward(input)
	assert.Equal(t, []float32{0, 0, 2, 0}, out.Data())
	assert.Empty(t, relu.Parameters())
}

func TestCrossEntropyLossValue(t *testing.T) {
	backend := cpu.New()
	loss := nn.NewCrossEntropyLoss(backend)

	logits, err := tensor.FromSlice([]float32{2, 0, 0, 2}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out := loss.Forward(logits, targets)
	want := float32(math.Log(1 + math.Exp(-2)))
	assert.InDelta(t, want, out.Item(), 1e-5)
}

func TestCrossEntropyLossUniformLogits(t *testing.T) {
	backend := cpu.New()
	loss := nn.NewCrossEntropyLoss(backend)

	logits, err := tensor.FromSlice([]float32{0, 0, 0, 0}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out := loss.Forward(logits, targets)
	assert.InDelta(t, float32(math.Log(2)), out.Item(), 1e-5)
}

func TestCrossEntropyLossMatchesAutodiffPath(t *testing.T) {
	// The fused autodiff path and the plain fallback must agree.
	plain := cpu.New()
	fused := autodiff.New(cpu.New())

	logitVals := []float32{1.5, -0.5, 0.2, 0.1, 0.3, 2.0}
	targetVals := []float32{1, 0, 0, 0, 0, 1}

	lp, err := tensor.FromSlice(logitVals, tensor.Shape{2, 3}, plain)
	require.NoError(t, err)
	tp, err := tensor.FromSlice(targetVals, tensor.Shape{2, 3}, plain)
	require.NoError(t, err)
	plainLoss := nn.NewCrossEntropyLoss(plain).Forward(lp, tp)

	lf, err := tensor.FromSlice(logitVals, tensor.Shape{2, 3}, fused)
	require.NoError(t, err)
	tf, err := tensor.FromSlice(targetVals, tensor.Shape{2, 3}, fused)
	require.NoError(t, err)
	fusedLoss := nn.NewCrossEntropyLoss(fused).Forward(lf, tf)

	assert.InDelta(t, plainLoss.Item(), fusedLoss.Item(), 1e-5)
}

func TestParameterGradLifecycle(t *testing.T) {
	backend := cpu.New()
	w, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	p := nn.NewParameter("w", w)

	assert.Nil(t, p.Grad())

	g := tensor.Zeros[float32](tensor.Shape{2}, backend)
	p.SetGrad(g)
	assert.NotNil(t, p.Grad())

	p.ZeroGrad()
	assert.Nil(t, p.Grad())
}
