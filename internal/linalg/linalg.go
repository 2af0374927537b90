// Package linalg provides differentiable linear-algebra routines over
// linop.Operator: symmetric (and generalized) eigendecomposition and linear
// solves, each with an exact dense method and matrix-free iterative methods.
//
// The routines compute in float64. When the operator's backend is an
// autodiff backend with a recording tape, SymEig and Solve register analytic
// adjoints as single composite tape operations instead of differentiating
// through their iterations.
package linalg

import (
	"github.com/scigrad-ml/scigrad/internal/autodiff"
	"github.com/scigrad-ml/scigrad/internal/linop"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// rawFrom copies a float64 slice into a fresh CPU tensor.
func rawFrom(data []float64, shape tensor.Shape) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	if err != nil {
		panic("linalg: " + err.Error())
	}
	copy(out.AsFloat64(), data)
	return out
}

// applyOp applies an operator to a plain float64 vector.
func applyOp(op linop.Operator, x []float64) []float64 {
	out := op.MV(rawFrom(x, tensor.Shape{len(x)}))
	res := make([]float64, out.NumElements())
	copy(res, out.AsFloat64())
	return res
}

// applyOpMat applies an operator to the columns of a row-major n×k matrix.
func applyOpMat(op linop.Operator, x []float64, n, k int) []float64 {
	out := op.MM(rawFrom(x, tensor.Shape{n, k}))
	res := make([]float64, out.NumElements())
	copy(res, out.AsFloat64())
	return res
}

// recordingTape returns the operator backend's tape when it is currently
// recording, nil otherwise.
func recordingTape(b tensor.Backend) *autodiff.GradientTape {
	if bc, ok := b.(autodiff.BackwardCapable); ok && bc.GetTape().IsRecording() {
		return bc.GetTape()
	}
	return nil
}
