package tensor

import "fmt"

// Tensor is a generic tensor with element type T and backend B.
// It provides type-safe operations over multi-dimensional arrays.
//
// Type Parameters:
//   - T: Data type (must satisfy DType constraint)
//   - B: Computation backend (must implement Backend interface)
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
//	result := t.Add(t)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New creates a Tensor from a RawTensor and backend.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{
		raw:     raw,
		backend: b,
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)

	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// Device returns the tensor's compute device.
func (t *Tensor[T, B]) Device() Device {
	return t.raw.Device()
}

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
// Used by backend implementations for low-level operations.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns the tensor's elements as a typed slice backed by the
// tensor's memory. Mutations are visible through the tensor.
func (t *Tensor[T, B]) Data() []T {
	switch t.raw.DType() {
	case Float32:
		return any(t.raw.AsFloat32()).([]T)
	case Int32:
		return any(t.raw.AsInt32()).([]T)
	case Bool:
		return any(t.raw.AsBool()).([]T)
	default:
		panic(fmt.Sprintf("unsupported dtype %s", t.raw.DType()))
	}
}

// Item returns the single element of a scalar (one-element) tensor.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item: tensor has %d elements, expected 1", t.NumElements()))
	}
	return t.Data()[0]
}

// At returns the element at the given indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("At: got %d indices for %d-dimensional tensor", len(indices), len(shape)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("At: index %d out of range for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * t.raw.Strides()[i]
	}
	return t.Data()[offset]
}

// Clone returns a deep copy of the tensor.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return New[T, B](t.raw.Clone(), t.backend)
}

// String returns a short description of the tensor.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.DType(), t.Shape(), t.Device())
}
