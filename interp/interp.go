// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package interp provides differentiable 1-D interpolation over strictly
// increasing grids: natural cubic splines and a piecewise-linear
// interpolant. Gradients flow to the sample values y when evaluation runs
// under an autodiff backend with the tape on.
//
// Example:
//
//	spline, err := interp.NewCubicSpline1D(x.Raw(), backend, nil)
//	yq, err := spline.EvalWith(xq.Raw(), y.Raw())
package interp

import (
	"github.com/scigrad-ml/scigrad/internal/interp"
	"github.com/scigrad-ml/scigrad/tensor"
)

// SplineOptions configures NewCubicSpline1D.
type SplineOptions = interp.SplineOptions

// CubicSpline1D is a natural cubic spline interpolant.
type CubicSpline1D = interp.CubicSpline1D

// NewCubicSpline1D builds a natural cubic spline over the strictly
// increasing 1-D grid x. The tridiagonal slope system is factorized once
// at construction.
func NewCubicSpline1D(x *tensor.RawTensor, backend tensor.Backend, o *SplineOptions) (*CubicSpline1D, error) {
	return interp.NewCubicSpline1D(x, backend, o)
}

// Linear1D is a piecewise-linear interpolant.
type Linear1D = interp.Linear1D

// NewLinear1D builds a piecewise-linear interpolant over the strictly
// increasing 1-D grid x.
func NewLinear1D(x *tensor.RawTensor, backend tensor.Backend) (*Linear1D, error) {
	return interp.NewLinear1D(x, backend)
}
