package autodiff_test

import (
	"math"
	"testing"

	"github.com/chorus-ml/chorus/internal/autodiff"
	"github.com/chorus-ml/chorus/internal/backend/cpu"
	"github.com/chorus-ml/chorus/internal/tensor"
)

type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() backend { return autodiff.New(cpu.New()) }

func fromSlice(t *testing.T, b backend, data []float32, shape tensor.Shape) *tensor.Tensor[float32, backend] {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, b)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return out
}

func gradOf(t *testing.T, grads map[*tensor.RawTensor]*tensor.RawTensor, x *tensor.Tensor[float32, backend]) []float32 {
	t.Helper()
	g, ok := grads[x.Raw()]
	if !ok {
		t.Fatal("no gradient recorded for input")
	}
	return g.AsFloat32()
}

func assertClose(t *testing.T, want, got []float32, msg string) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length %d, want %d", msg, len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(want[i]-got[i])) > 1e-4 {
			t.Errorf("%s: element %d = %v, want %v", msg, i, got[i], want[i])
		}
	}
}

func TestBackendName(t *testing.T) {
	if newBackend().Name() != "Autodiff(CPU)" {
		t.Errorf("Name() = %s", newBackend().Name())
	}
}

func TestTapeRecording(t *testing.T) {
	b := newBackend()
	tape := b.Tape()

	if tape.IsRecording() {
		t.Error("tape must start idle")
	}

	tape.StartRecording()
	x := fromSlice(t, b, []float32{1, 2}, tensor.Shape{2})
	y := fromSlice(t, b, []float32{3, 4}, tensor.Shape{2})
	x.Add(y)
	if tape.NumOps() != 1 {
		t.Errorf("NumOps = %d, want 1", tape.NumOps())
	}

	tape.StopRecording()
	x.Add(y)
	if tape.NumOps() != 1 {
		t.Error("ops recorded while stopped")
	}

	tape.Clear()
	if tape.NumOps() != 0 {
		t.Error("Clear() must drop recorded ops")
	}
}

func TestAddBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	y := fromSlice(t, b, []float32{4, 5, 6}, tensor.Shape{3})
	z := x.Add(y).Sum()

	grads := autodiff.Backward(z, b)
	assertClose(t, []float32{1, 1, 1}, gradOf(t, grads, x), "dz/dx")
	assertClose(t, []float32{1, 1, 1}, gradOf(t, grads, y), "dz/dy")
}

func TestMulBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, b, []float32{2, 3}, tensor.Shape{2})
	y := fromSlice(t, b, []float32{5, 7}, tensor.Shape{2})
	z := x.Mul(y).Sum()

	grads := autodiff.Backward(z, b)
	assertClose(t, []float32{5, 7}, gradOf(t, grads, x), "dz/dx = y")
	assertClose(t, []float32{2, 3}, gradOf(t, grads, y), "dz/dy = x")
}

func TestBroadcastBackwardReducesGrad(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := fromSlice(t, b, []float32{10, 20, 30}, tensor.Shape{1, 3})
	z := x.Add(bias).Sum()

	grads := autodiff.Backward(z, b)
	// The bias gradient is summed over the broadcast dimension.
	g := gradOf(t, grads, bias)
	assertClose(t, []float32{2, 2, 2}, g, "broadcast grad")
	if !grads[bias.Raw()].Shape().Equal(tensor.Shape{1, 3}) {
		t.Errorf("bias grad shape = %v, want [1 3]", grads[bias.Raw()].Shape())
	}
}

func TestMatMulBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, b, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	w := fromSlice(t, b, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})
	z := x.MatMul(w).Sum()

	grads := autodiff.Backward(z, b)
	// d(sum(XW))/dX = ones @ Wᵀ, d/dW = Xᵀ @ ones.
	assertClose(t, []float32{11, 15, 11, 15}, gradOf(t, grads, x), "dz/dx")
	assertClose(t, []float32{4, 4, 6, 6}, gradOf(t, grads, w), "dz/dw")
}

func TestNarrowBackwardScattersGrad(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	z := x.Narrow(1, 1, 2).Sum()

	grads := autodiff.Backward(z, b)
	// Positions outside the narrowed range get zero gradient.
	assertClose(t, []float32{0, 1, 1, 0, 1, 1}, gradOf(t, grads, x), "narrow grad")
}

func TestCatBackwardSplitsGrad(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, b, []float32{1, 2}, tensor.Shape{1, 2})
	y := fromSlice(t, b, []float32{3, 4, 5}, tensor.Shape{1, 3})
	joined := tensor.Cat([]*tensor.Tensor[float32, backend]{x, y}, 1)
	weights := fromSlice(t, b, []float32{1, 2, 3, 4, 5}, tensor.Shape{1, 5})
	z := joined.Mul(weights).Sum()

	grads := autodiff.Backward(z, b)
	assertClose(t, []float32{1, 2}, gradOf(t, grads, x), "first slice")
	assertClose(t, []float32{3, 4, 5}, gradOf(t, grads, y), "second slice")
}

func TestReshapeTransposeBackward(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	scale := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	z := x.T().Mul(scale).Sum()

	grads := autodiff.Backward(z, b)
	// Gradient flows back through the inverse permutation.
	assertClose(t, []float32{1, 3, 5, 2, 4, 6}, gradOf(t, grads, x), "transpose grad")
}

func TestCrossEntropyGradient(t *testing.T) {
	b := newBackend()
	b.Tape().StartRecording()

	logits := fromSlice(t, b, []float32{2, 0, 0, 2}, tensor.Shape{2, 2})
	targets := fromSlice(t, b, []float32{1, 0, 0, 1}, tensor.Shape{2, 2})

	lossRaw := b.CrossEntropy(logits.Raw(), targets.Raw())
	loss := tensor.New[float32, backend](lossRaw, b)

	// loss = mean over batch of -log softmax at the gold class.
	wantLoss := float32(math.Log(1 + math.Exp(-2)))
	if math.Abs(float64(loss.Item()-wantLoss)) > 1e-5 {
		t.Errorf("loss = %v, want %v", loss.Item(), wantLoss)
	}

	grads := autodiff.Backward(loss, b)
	p := float32(1 / (1 + math.Exp(-2)))
	want := []float32{(p - 1) / 2, (1 - p) / 2, (1 - p) / 2, (p - 1) / 2}
	assertClose(t, want, gradOf(t, grads, logits), "dloss/dlogits")
}

func TestNumericGradientCheck(t *testing.T) {
	// Finite-difference check of d(sum((x+c)*x))/dx at a few points.
	eval := func(xv []float32) float32 {
		b := cpu.New()
		x, err := tensor.FromSlice(xv, tensor.Shape{3}, b)
		if err != nil {
			t.Fatal(err)
		}
		c, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, b)
		if err != nil {
			t.Fatal(err)
		}
		return x.Add(c).Mul(x).Sum().Item()
	}

	b := newBackend()
	b.Tape().StartRecording()
	x := fromSlice(t, b, []float32{0.5, -1, 2}, tensor.Shape{3})
	c := fromSlice(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	z := x.Add(c).Mul(x).Sum()
	grads := autodiff.Backward(z, b)
	analytic := gradOf(t, grads, x)

	base := []float32{0.5, -1, 2}
	const eps = 1e-3
	for i := range base {
		plus := append([]float32(nil), base...)
		minus := append([]float32(nil), base...)
		plus[i] += eps
		minus[i] -= eps
		numeric := (eval(plus) - eval(minus)) / (2 * eps)
		if math.Abs(float64(numeric-analytic[i])) > 1e-2 {
			t.Errorf("gradient %d: analytic %v, numeric %v", i, analytic[i], numeric)
		}
	}
}

func TestBackwardWithoutOpsPanics(t *testing.T) {
	b := newBackend()
	x := fromSlice(t, b, []float32{1}, tensor.Shape{1})

	defer func() {
		if recover() == nil {
			t.Error("Backward with empty tape must panic")
		}
	}()
	autodiff.Backward(x, b)
}
