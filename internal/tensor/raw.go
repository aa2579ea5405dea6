package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor representation: a contiguous byte
// buffer plus shape, stride, and runtime type information. Typed access
// goes through the As* views; backends operate on RawTensors directly.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	byteSize := shape.NumElements() * dtype.Size()

	return &RawTensor{
		data:   make([]byte, byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsBool interprets the data as []bool.
// Panics if the tensor's dtype is not Bool.
func (r *RawTensor) AsBool() []bool {
	if r.dtype != Bool {
		panic(fmt.Sprintf("tensor dtype is %s, not bool", r.dtype))
	}
	return unsafe.Slice((*bool)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Clone creates a deep copy of the RawTensor.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
}

// WithShape returns a view of the same buffer under a different shape.
// The element count must match.
func (r *RawTensor) WithShape(shape Shape) *RawTensor {
	if shape.NumElements() != r.NumElements() {
		panic(fmt.Sprintf("cannot view shape %v as %v: element count mismatch", r.shape, shape))
	}
	return &RawTensor{
		data:   r.data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
	}
}
