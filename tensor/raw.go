// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/scigrad-ml/scigrad/internal/tensor"

// RawTensor is the low-level tensor representation: shape and dtype
// metadata over a reference-counted buffer with copy-on-write semantics.
// Most users should work with the high-level Tensor[T, B] type instead.
type RawTensor = tensor.RawTensor

// NewRaw allocates a zeroed raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}
