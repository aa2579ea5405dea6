// Copyright 2026 The Chorus Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/chorus-ml/chorus/internal/tensor"
)

// DType is a constraint for tensor data types.
// Supported types: float32, int32, bool.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Int32   DataType = tensor.Int32
	Bool    DataType = tensor.Bool
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU Device = tensor.CPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Backend is the interface device-specific compute implementations satisfy.
type Backend = tensor.Backend

// RawTensor is the low-level tensor representation shared by backends.
type RawTensor = tensor.RawTensor

// Tensor is the high-level generic tensor with compile-time element type
// and backend.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// NewRaw creates a zero-initialized RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// New wraps a RawTensor into a typed Tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// FromSlice creates a tensor from a data slice and shape.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}

// Randn creates a float32 tensor with standard normal values. A nil rng
// falls back to the global math/rand source.
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	return tensor.Randn(shape, rng, b)
}

// Cat concatenates tensors along the given dimension.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	return tensor.Cat(tensors, dim)
}

// BroadcastShapes computes the NumPy-style broadcast of two shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
