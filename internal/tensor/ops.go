package tensor

// Add performs element-wise addition with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	result := t.backend.Add(t.raw, other.raw)
	return New[T, B](result, t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	result := t.backend.Sub(t.raw, other.raw)
	return New[T, B](result, t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	result := t.backend.Mul(t.raw, other.raw)
	return New[T, B](result, t.backend)
}

// MatMul performs matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	result := t.backend.MatMul(t.raw, other.raw)
	return New[T, B](result, t.backend)
}

// Reshape returns a tensor with the same data and a new shape.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	result := t.backend.Reshape(t.raw, Shape(newShape))
	return New[T, B](result, t.backend)
}

// Transpose permutes the tensor's dimensions. With no arguments it
// reverses them (2D matrix transpose).
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	result := t.backend.Transpose(t.raw, axes...)
	return New[T, B](result, t.backend)
}

// T is shorthand for a 2D matrix transpose.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	return t.Transpose()
}

// Narrow returns the contiguous slice [start, start+length) along dim.
func (t *Tensor[T, B]) Narrow(dim, start, length int) *Tensor[T, B] {
	result := t.backend.Narrow(t.raw, dim, start, length)
	return New[T, B](result, t.backend)
}

// Softmax applies the softmax function along the given dimension.
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	result := t.backend.Softmax(t.raw, dim)
	return New[T, B](result, t.backend)
}

// Sum returns the total sum of all elements as a scalar tensor.
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	result := t.backend.Sum(t.raw)
	return New[T, B](result, t.backend)
}

// SumDim sums along the given dimension.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	result := t.backend.SumDim(t.raw, dim, keepDim)
	return New[T, B](result, t.backend)
}

// Argmax returns the index of the maximum value along the given dimension.
func (t *Tensor[T, B]) Argmax(dim int) *Tensor[int32, B] {
	result := t.backend.Argmax(t.raw, dim)
	return New[int32, B](result, t.backend)
}

// Cat concatenates tensors along the given dimension.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("Cat: empty tensor list")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.Raw()
	}
	b := tensors[0].Backend()
	return New[T, B](b.Cat(raws, dim), b)
}
