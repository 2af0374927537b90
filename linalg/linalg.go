// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package linalg provides differentiable linear-algebra routines over
// linear operators: symmetric (generalized) eigendecomposition and
// multi-right-hand-side linear solves with optional diagonal shifts.
//
// When the routines run under an autodiff backend with the tape on, the
// results carry analytic adjoints, so gradients flow back to the operator
// matrix without differentiating through the iterations.
//
// Example:
//
//	a, _ := linop.NewMatrix(mat.Raw(), backend, true)
//	evals, evecs, err := linalg.SymEig(a, 3, nil)
package linalg

import (
	"github.com/scigrad-ml/scigrad/internal/linalg"
	"github.com/scigrad-ml/scigrad/linop"
	"github.com/scigrad-ml/scigrad/tensor"
)

// Mode selects which end of the spectrum SymEig returns.
type Mode = linalg.Mode

// Spectrum modes.
const (
	ModeLowest Mode = linalg.ModeLowest
	ModeUppest Mode = linalg.ModeUppest
)

// SymEigOptions configures SymEig.
type SymEigOptions = linalg.SymEigOptions

// SolveOptions configures Solve.
type SolveOptions = linalg.SolveOptions

// SymEig computes the neig eigenvalues and eigenvectors at one end of the
// spectrum of a hermitian operator A, optionally generalized with a
// positive-definite metric M (A U = M U diag(E)). Eigenvalues are returned
// in ascending order with M-orthonormal eigenvectors as columns.
func SymEig(a linop.Operator, neig int, o *SymEigOptions) (evals, evecs *tensor.RawTensor, err error) {
	return linalg.SymEig(a, neig, o)
}

// Solve solves A X - M X diag(E) = B column by column. Without E it is a
// plain linear solve A X = B.
func Solve(a linop.Operator, b *tensor.RawTensor, o *SolveOptions) (*tensor.RawTensor, error) {
	return linalg.Solve(a, b, o)
}
