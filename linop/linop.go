// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package linop provides linear operators: the abstraction the linalg
// routines consume. An operator is anything that can apply itself to a
// vector; it may be backed by an explicit matrix or by a function.
//
// Example:
//
//	mat, _ := tensor.FromSlice([]float64{2, 1, 1, 3}, tensor.Shape{2, 2}, backend)
//	a, err := linop.NewMatrix(mat.Raw(), backend, true)
package linop

import (
	"github.com/scigrad-ml/scigrad/internal/linop"
	"github.com/scigrad-ml/scigrad/tensor"
)

// Operator is a linear map between finite-dimensional spaces.
type Operator = linop.Operator

// Matrix is an operator backed by an explicit 2-D tensor.
type Matrix = linop.Matrix

// NewMatrix wraps a 2-D float tensor as an operator. When hermitian is
// true the matrix must be square and symmetric.
func NewMatrix(mat *tensor.RawTensor, backend tensor.Backend, hermitian bool) (*Matrix, error) {
	return linop.NewMatrix(mat, backend, hermitian)
}

// Func is a matrix-free operator defined by its matrix-vector product.
type Func = linop.Func

// NewFunc builds an operator from a matrix-vector product function.
func NewFunc(rows, cols int, hermitian bool, dtype tensor.DataType, backend tensor.Backend, mv func(*tensor.RawTensor) *tensor.RawTensor) (*Func, error) {
	return linop.NewFunc(rows, cols, hermitian, dtype, backend, mv)
}

// Identity is the n-dimensional identity operator.
type Identity = linop.Identity

// NewIdentity creates an identity operator.
func NewIdentity(n int, dtype tensor.DataType, backend tensor.Backend) *Identity {
	return linop.NewIdentity(n, dtype, backend)
}

// Scaled is an operator multiplied by a scalar.
type Scaled = linop.Scaled

// Scale wraps op as s*op.
func Scale(op Operator, s float64) *Scaled {
	return linop.Scale(op, s)
}

// Sum is the sum of two operators of the same shape.
type Sum = linop.Sum

// Add combines two operators into their sum.
func Add(a, b Operator) (*Sum, error) {
	return linop.Add(a, b)
}
