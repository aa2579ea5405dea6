// Package cpu implements the pure-Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementwise("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementwise("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementwise("mul", a, b, func(x, y float32) float32 { return x * y })
}

// elementwise applies a binary float32 op with broadcasting.
func (cpu *CPUBackend) elementwise(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtypes %s, %s", name, a.DType(), b.DType()))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	dst := result.AsFloat32()
	aData := a.AsFloat32()
	bData := b.AsFloat32()

	if !needsBroadcast {
		for i := range dst {
			dst[i] = op(aData[i], bData[i])
		}
		return result
	}

	aIdx := newBroadcastIndexer(a.Shape(), outShape)
	bIdx := newBroadcastIndexer(b.Shape(), outShape)
	for i := range dst {
		dst[i] = op(aData[aIdx.at(i)], bData[bIdx.at(i)])
	}
	return result
}

// broadcastIndexer maps a flat index in the broadcast output shape back to
// a flat index in a (possibly smaller) input shape.
type broadcastIndexer struct {
	outShape  tensor.Shape
	outStride []int
	inStride  []int // 0 stride for broadcast dimensions
}

func newBroadcastIndexer(in, out tensor.Shape) *broadcastIndexer {
	outStride := out.ComputeStrides()
	inStrideFull := in.ComputeStrides()

	// Align input dims to the right of the output dims.
	inStride := make([]int, len(out))
	offset := len(out) - len(in)
	for i := range out {
		j := i - offset
		if j < 0 || in[j] == 1 {
			inStride[i] = 0
		} else {
			inStride[i] = inStrideFull[j]
		}
	}
	return &broadcastIndexer{outShape: out, outStride: outStride, inStride: inStride}
}

func (bi *broadcastIndexer) at(flat int) int {
	idx := 0
	for i := range bi.outShape {
		coord := (flat / bi.outStride[i]) % bi.outShape[i]
		idx += coord * bi.inStride[i]
	}
	return idx
}
