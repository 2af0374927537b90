// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// It wraps any compute backend with a gradient tape: operations executed
// through the wrapped backend are recorded while the tape is on, and
// Backward replays them in reverse to accumulate gradients.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
//	backend.Tape().StartRecording()
//
//	x, _ := tensor.FromSlice([]float64{2}, tensor.Shape{1}, backend)
//	y := x.Mul(x)
//
//	grads := autodiff.Backward(y, backend)
//	_ = grads[x.Raw()] // dy/dx = 4
package autodiff

import (
	"github.com/scigrad-ml/scigrad/internal/autodiff"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Backend is the gradient-recording backend decorator.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// New wraps backend with gradient recording. The tape starts out off;
// call Tape().StartRecording() before the operations to differentiate.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for reverse-mode differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates an empty gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is satisfied by backends that carry a gradient tape.
type BackwardCapable = autodiff.BackwardCapable

// Backward runs backpropagation from t, seeding its gradient with ones,
// and returns the gradient of every tensor that participated.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
