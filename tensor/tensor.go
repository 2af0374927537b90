// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// DType is the constraint for supported tensor element types.
type DType = tensor.DType

// Float is the constraint satisfied by the floating-point element types.
type Float = tensor.Float

// DataType carries runtime type information for tensors.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
)

// Device identifies where tensor data lives.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// Tensor is the generic type-safe tensor. T is the element type and B the
// compute backend.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// New wraps a RawTensor in a typed tensor. Panics if the element type does
// not match the raw tensor's dtype.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// FromSlice creates a tensor from a flat slice in row-major order.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Eye creates a 2-D tensor with ones on the main diagonal.
func Eye[T DType, B Backend](rows, cols int, b B) *Tensor[T, B] {
	return tensor.Eye[T, B](rows, cols, b)
}

// Randn creates a tensor of samples from the standard normal distribution.
func Randn[T Float, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, rng, b)
}

// Rand creates a tensor of samples uniform on [0, 1).
func Rand[T Float, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, rng, b)
}

// Arange creates a 1-D tensor of the integers [start, stop).
func Arange[T DType, B Backend](start, stop int, b B) *Tensor[T, B] {
	return tensor.Arange[T, B](start, stop, b)
}

// Linspace creates a 1-D tensor of n evenly spaced values from start to stop.
func Linspace[T Float, B Backend](start, stop T, n int, b B) *Tensor[T, B] {
	return tensor.Linspace[T, B](start, stop, n, b)
}

// BroadcastShapes computes the NumPy-style broadcast of two shapes. The
// second result reports whether broadcasting is actually needed.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
