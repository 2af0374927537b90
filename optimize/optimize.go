// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optimize provides a Broyden rootfinder for nonlinear systems
// F(x) = 0 and a first-order minimizer whose gradients come from the
// autodiff tape.
package optimize

import (
	"github.com/scigrad-ml/scigrad/internal/optimize"
	"github.com/scigrad-ml/scigrad/tensor"
)

// RootOptions configures Root.
type RootOptions = optimize.RootOptions

// Root solves F(x) = 0 with Broyden's good method.
func Root(f func([]float64) []float64, x0 []float64, o *RootOptions) ([]float64, error) {
	return optimize.Root(f, x0, o)
}

// Stepper applies one parameter update given the current gradient.
type Stepper = optimize.Stepper

// GDConfig configures gradient descent.
type GDConfig = optimize.GDConfig

// GradientDescent is plain gradient descent with optional momentum.
type GradientDescent = optimize.GradientDescent

// NewGradientDescent creates a gradient descent stepper.
func NewGradientDescent(config GDConfig) *GradientDescent {
	return optimize.NewGradientDescent(config)
}

// AdamConfig configures the Adam stepper.
type AdamConfig = optimize.AdamConfig

// Adam is the Adam stepper.
type Adam = optimize.Adam

// NewAdam creates an Adam stepper with defaults filled in.
func NewAdam(config AdamConfig) *Adam {
	return optimize.NewAdam(config)
}

// MinimizeOptions configures Minimize.
type MinimizeOptions = optimize.MinimizeOptions

// Minimize drives the scalar objective f toward a local minimum starting
// from x0, differentiating f through the backend's gradient tape.
func Minimize(
	f func(x *tensor.RawTensor) (*tensor.RawTensor, error),
	x0 *tensor.RawTensor,
	backend tensor.Backend,
	o *MinimizeOptions,
) (*tensor.RawTensor, error) {
	return optimize.Minimize(f, x0, backend, o)
}
