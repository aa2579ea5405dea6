package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - cpu.Backend: pure Go reference implementation
//   - autodiff.Backend: decorator that records operations for backprop
type Backend interface {
	// Element-wise binary operations (with NumPy-style broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Narrow returns a contiguous slice [start, start+length) along dim.
	// This is the primitive behind modality chunk subsampling.
	Narrow(t *RawTensor, dim, start, length int) *RawTensor

	// Cat concatenates tensors along a dimension.
	Cat(tensors []*RawTensor, dim int) *RawTensor

	// Activation and normalization
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reduction operations
	Sum(x *RawTensor) *RawTensor                           // total sum (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor // sum along dimension
	Argmax(x *RawTensor, dim int) *RawTensor               // index of maximum along dimension

	// Metadata
	Name() string
	Device() Device
}
